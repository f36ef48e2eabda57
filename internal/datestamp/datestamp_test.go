package datestamp

import (
	"errors"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		year     int
		month    int
		day      int
		dotted   string
		era      string
	}{
		{"parenthesized", "(20250328)会見録.pdf", 2025, 3, 28, "2025.3.28", "令和7年3月28日"},
		{"bracketed", "[20241105]kaiken.pdf", 2024, 11, 5, "2024.11.5", "令和6年11月5日"},
		{"bare", "20230101.pdf", 2023, 1, 1, "2023.1.1", "令和5年1月1日"},
		{"embedded in text", "知事会見_20250704_最終版.pdf", 2025, 7, 4, "2025.7.4", "令和7年7月4日"},
		{"first match wins", "20250328-20250401.pdf", 2025, 3, 28, "2025.3.28", "令和7年3月28日"},
		{"reiwa first year", "20190501.pdf", 2019, 5, 1, "2019.5.1", "令和元年5月1日"},
		{"no calendar check", "20251345.pdf", 2025, 13, 45, "2025.13.45", "令和7年13月45日"},
		{"impossible day accepted", "(20250231).pdf", 2025, 2, 31, "2025.2.31", "令和7年2月31日"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.filename)
			if err != nil {
				t.Fatalf("Extract(%q) returned error: %v", tt.filename, err)
			}
			if got.Year != tt.year || got.Month != tt.month || got.Day != tt.day {
				t.Errorf("Extract(%q) = %d/%d/%d, want %d/%d/%d", tt.filename, got.Year, got.Month, got.Day, tt.year, tt.month, tt.day)
			}
			if got.Dotted != tt.dotted {
				t.Errorf("Dotted = %q, want %q", got.Dotted, tt.dotted)
			}
			if got.Era != tt.era {
				t.Errorf("Era = %q, want %q", got.Era, tt.era)
			}
		})
	}
}

func TestExtract_MissingDate(t *testing.T) {
	filenames := []string{
		"",
		"会見録.pdf",
		"2025-03-28.pdf",
		"(2025032).pdf",
		"report_1234567.pdf",
	}

	for _, filename := range filenames {
		t.Run(filename, func(t *testing.T) {
			_, err := Extract(filename)
			if err == nil {
				t.Fatalf("Expected error for %q, got nil", filename)
			}
			var missing *MissingDateError
			if !errors.As(err, &missing) {
				t.Fatalf("Expected MissingDateError, got %T: %v", err, err)
			}
			if missing.Filename != filename {
				t.Errorf("Filename = %q, want %q", missing.Filename, filename)
			}
			if missing.Message() == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestOutputFilename(t *testing.T) {
	d := New(2025, 3, 28)
	tests := map[string]string{
		"pdf":  "2025.3.28知事記者会見.pdf",
		"docx": "2025.3.28知事記者会見.docx",
		"txt":  "2025.3.28知事記者会見.txt",
	}
	for ext, want := range tests {
		if got := OutputFilename(d, ext); got != want {
			t.Errorf("OutputFilename(%q) = %q, want %q", ext, got, want)
		}
	}
}
