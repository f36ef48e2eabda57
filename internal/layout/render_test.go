package layout

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/internal/documents"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

const sampleText = "＜令和7年3月28日 知事記者会見＞\n\n＜知事冒頭発言＞\n\n【知事】テスト発言。\n\n【知事】テスト発言。"

// testFont is a GNU Unifont subset covering ASCII, kana and the kanji used
// in these tests.
const testFont = "testdata/unifont-jp-subset.ttf"

func testLayout() config.LayoutConfig {
	cfg := config.Default().Layout
	cfg.FontPath = testFont
	return cfg
}

func TestNewRenderer(t *testing.T) {
	tests := []struct {
		format      models.OutputFormat
		contentType string
		wantErr     bool
	}{
		{models.FormatPDF, "application/pdf", false},
		{models.FormatDOCX, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", false},
		{models.FormatText, "text/plain; charset=utf-8", false},
		{"html", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			r, err := NewRenderer(tt.format, testLayout())
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error for unknown format")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRenderer failed: %v", err)
			}
			if r.Format() != tt.format {
				t.Errorf("Format() = %s", r.Format())
			}
			if r.ContentType() != tt.contentType {
				t.Errorf("ContentType() = %s", r.ContentType())
			}
		})
	}
}

func TestNewRenderer_PDFRequiresFont(t *testing.T) {
	cfg := testLayout()
	cfg.FontPath = ""

	if _, err := NewRenderer(models.FormatPDF, cfg); !errors.Is(err, config.ErrNoFont) {
		t.Errorf("Expected ErrNoFont, got %v", err)
	}
	for _, format := range []models.OutputFormat{models.FormatDOCX, models.FormatText} {
		if _, err := NewRenderer(format, cfg); err != nil {
			t.Errorf("%s should not need a font file: %v", format, err)
		}
	}

	err := NewPDFRenderer(cfg).Render(io.Discard, Classify("", sampleText))
	var renderErr *RenderError
	if !errors.As(err, &renderErr) || !errors.Is(err, config.ErrNoFont) {
		t.Errorf("Expected RenderError wrapping ErrNoFont, got %v", err)
	}
}

func TestNewRenderer_InvalidLayout(t *testing.T) {
	cfg := testLayout()
	cfg.LineHeight = 30
	if _, err := NewRenderer(models.FormatPDF, cfg); err == nil {
		t.Error("Expected error for out-of-range line height")
	}
}

func TestPDFRenderer_PageCount(t *testing.T) {
	cfg := testLayout()
	r := NewPDFRenderer(cfg)

	for _, n := range []int{1, 49, 50, 120} {
		lines := make([]string, n)
		for i := range lines {
			lines[i] = "Line of body text"
		}
		doc := Classify("Title", strings.Join(lines, "\n"))

		var buf bytes.Buffer
		pages, err := r.render(&buf, doc)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}

		geo := geometry{height: 841.89, margin: cfg.Margin, pitch: cfg.LineHeight}
		if want := ceilDiv(n, geo.linesPerPage()); pages != want {
			t.Errorf("%d lines: %d pages, want %d", n, pages, want)
		}

		count, err := documents.Validate(buf.Bytes())
		if err != nil {
			t.Fatalf("rendered PDF does not validate: %v", err)
		}
		if count != pages {
			t.Errorf("PDF has %d pages, renderer reported %d", count, pages)
		}
	}
}

func TestPDFRenderer_Text(t *testing.T) {
	doc := Classify("Title", "<Heading>\n\nbody line one\nbody line two")

	var buf bytes.Buffer
	if err := NewPDFRenderer(testLayout()).Render(&buf, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	shown := shownText(t, buf.Bytes())
	want := []string{"<Heading>", "body line one", "body line two"}
	if strings.Join(shown, "|") != strings.Join(want, "|") {
		t.Errorf("Rendered PDF text = %q, want %q", shown, want)
	}
}

// shownText returns the operands of the text-showing operators on every page,
// decoded from the UTF-16BE that embedded TrueType fonts are written in.
func shownText(t *testing.T, data []byte) []string {
	t.Helper()
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("rendered PDF does not validate: %v", err)
	}
	var shown []string
	for page := 1; page <= ctx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil {
			t.Fatalf("page %d content: %v", page, err)
		}
		content, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("page %d content: %v", page, err)
		}
		for _, raw := range literalStrings(content) {
			shown = append(shown, decodeUTF16BE(raw))
		}
	}
	return shown
}

// literalStrings returns the unescaped (...) strings of a content stream.
func literalStrings(content []byte) [][]byte {
	var out [][]byte
	for i := 0; i < len(content); i++ {
		if content[i] != '(' {
			continue
		}
		var raw []byte
		j := i + 1
		for ; j < len(content) && content[j] != ')'; j++ {
			if content[j] == '\\' && j+1 < len(content) {
				j++
				switch content[j] {
				case 'r':
					raw = append(raw, '\r')
				case 'n':
					raw = append(raw, '\n')
				default:
					raw = append(raw, content[j])
				}
				continue
			}
			raw = append(raw, content[j])
		}
		out = append(out, raw)
		i = j
	}
	return out
}

func decodeUTF16BE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

func TestPDFRenderer_Japanese(t *testing.T) {
	doc := Classify("令和7年3月28日 知事記者会見", sampleText)

	var buf bytes.Buffer
	if err := NewPDFRenderer(testLayout()).Render(&buf, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("/FontFile2")) {
		t.Error("Expected the TrueType font to be embedded")
	}
	if bytes.Contains(buf.Bytes(), []byte("/Helvetica")) {
		t.Error("Output should not reference a core font")
	}

	shown := shownText(t, buf.Bytes())
	joined := strings.Join(shown, "\n")
	for _, want := range []string{"令和7年3月28日 知事記者会見", "知事冒頭発言", "【知事】", "テスト発言。"} {
		if !strings.Contains(joined, want) {
			t.Errorf("PDF text does not contain %q; shown: %q", want, shown)
		}
	}
	if n := strings.Count(joined, "テスト発言。"); n != 2 {
		t.Errorf("Expected 2 speaker lines, got %d in %q", n, shown)
	}
}

func TestPDFRenderer_MissingFont(t *testing.T) {
	cfg := testLayout()
	cfg.FontPath = "/nonexistent/font.ttf"

	err := NewPDFRenderer(cfg).Render(io.Discard, Classify("", sampleText))

	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Expected RenderError, got %v", err)
	}
	if renderErr.Format != models.FormatPDF {
		t.Errorf("Format = %s", renderErr.Format)
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip archive: %v", err)
	}
	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		files[f.Name] = string(b)
	}
	return files
}

func TestDOCXRenderer(t *testing.T) {
	doc := Classify("令和7年3月28日 知事記者会見", sampleText+"\n本文 & <注記>")

	var buf bytes.Buffer
	if err := NewDOCXRenderer(testLayout()).Render(&buf, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	files := readZip(t, buf.Bytes())

	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "word/_rels/document.xml.rels", "docProps/core.xml"} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing part %s", name)
		}
	}

	body := files["word/document.xml"]
	if n := strings.Count(body, `<w:pStyle w:val="Heading1"/>`); n != 2 {
		t.Errorf("Expected 2 headings, got %d", n)
	}
	speaker := `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">【知事】</w:t></w:r><w:r><w:t xml:space="preserve">テスト発言。</w:t></w:r>`
	if n := strings.Count(body, speaker); n != 2 {
		t.Errorf("Expected 2 bold speaker runs followed by body, got %d", n)
	}
	if !strings.Contains(body, "本文 &amp; &lt;注記&gt;") {
		t.Errorf("body text not escaped: %s", body)
	}
	// Blank lines produce no paragraphs: 2 headings, 2 speakers, 1 body.
	if n := strings.Count(body, "</w:p>"); n != 5 {
		t.Errorf("Expected 5 paragraphs, got %d", n)
	}
	if !strings.Contains(files["docProps/core.xml"], "<dc:title>令和7年3月28日 知事記者会見</dc:title>") {
		t.Errorf("core title missing: %s", files["docProps/core.xml"])
	}
	if !strings.Contains(body, `w:top="1000"`) {
		t.Errorf("Expected 50pt margins in section properties")
	}
}

func TestTextRenderer(t *testing.T) {
	doc := Classify("", "  ＜見出し＞  \n\n【知事】 発言\n本文")

	var buf bytes.Buffer
	if err := NewTextRenderer(testLayout()).Render(&buf, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "＜見出し＞\n\n【知事】発言\n本文\n"
	if buf.String() != want {
		t.Errorf("Render = %q, want %q", buf.String(), want)
	}
}

func TestTextRenderer_Pagination(t *testing.T) {
	cfg := testLayout()
	cfg.TextPageLines = 2

	doc := Classify("", "a\nb\n\nc\nd")

	var buf bytes.Buffer
	if err := NewTextRenderer(cfg).Render(&buf, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "a\nb\n\f\nc\n\fd\n"
	if buf.String() != want {
		t.Errorf("Render = %q, want %q", buf.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_WriterError(t *testing.T) {
	doc := Classify("", sampleText)
	for _, format := range []models.OutputFormat{models.FormatPDF, models.FormatDOCX, models.FormatText} {
		t.Run(string(format), func(t *testing.T) {
			r, err := NewRenderer(format, testLayout())
			if err != nil {
				t.Fatalf("NewRenderer failed: %v", err)
			}
			err = r.Render(failingWriter{}, doc)
			var renderErr *RenderError
			if !errors.As(err, &renderErr) {
				t.Fatalf("Expected RenderError, got %v", err)
			}
			if renderErr.Message() == "" {
				t.Error("Expected a user-facing message")
			}
		})
	}
}
