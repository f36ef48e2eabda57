package resources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/Epistemic-Technology/transcript-mcp/internal/llm"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

func TestReadResource(t *testing.T) {
	h := NewTranscriptResourceHandler()
	ctx := context.Background()

	res, err := h.ReadResource(ctx, InstructionsURI)
	if err != nil {
		t.Fatalf("ReadResource(instructions) failed: %v", err)
	}
	if res.Contents[0].Text != llm.Instructions() {
		t.Errorf("instructions = %q", res.Contents[0].Text)
	}

	res, err = h.ReadResource(ctx, SpeakerLabelsURI)
	if err != nil {
		t.Fatalf("ReadResource(speaker-labels) failed: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, "【知事】") {
		t.Errorf("speaker labels = %s", res.Contents[0].Text)
	}
}

func TestReadResource_Date(t *testing.T) {
	h := NewTranscriptResourceHandler()
	uri := "transcript://date/" + url.PathEscape("(20250328)会見録.pdf")

	res, err := h.ReadResource(context.Background(), uri)
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	var date models.DateStamp
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &date); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if date.Dotted != "2025.3.28" || date.Era != "令和7年3月28日" {
		t.Errorf("date = %+v", date)
	}
}

func TestReadResource_Errors(t *testing.T) {
	h := NewTranscriptResourceHandler()
	for _, uri := range []string{
		"pdf://abc",
		"transcript://unknown",
		"transcript://date/no-date.pdf",
	} {
		if _, err := h.ReadResource(context.Background(), uri); err == nil {
			t.Errorf("ReadResource(%q) should fail", uri)
		}
	}
}

func TestListResources(t *testing.T) {
	list := NewTranscriptResourceHandler().ListResources()
	if len(list) != 2 {
		t.Fatalf("Expected 2 resources, got %d", len(list))
	}
	for _, r := range list {
		if _, err := NewTranscriptResourceHandler().ReadResource(context.Background(), r.URI); err != nil {
			t.Errorf("listed resource %s is not readable: %v", r.URI, err)
		}
	}
}
