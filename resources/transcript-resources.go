package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/transcript-mcp/internal/datestamp"
	"github.com/Epistemic-Technology/transcript-mcp/internal/layout"
	"github.com/Epistemic-Technology/transcript-mcp/internal/llm"
)

const (
	InstructionsURI  = "transcript://instructions"
	SpeakerLabelsURI = "transcript://speaker-labels"
	DateURITemplate  = "transcript://date/{filename}"

	scheme = "transcript://"
)

// TranscriptResourceHandler serves the fixed editorial conventions the
// formatter works with.
type TranscriptResourceHandler struct{}

// NewTranscriptResourceHandler creates a new transcript resource handler
func NewTranscriptResourceHandler() *TranscriptResourceHandler {
	return &TranscriptResourceHandler{}
}

// ListResources returns the static resources.
func (h *TranscriptResourceHandler) ListResources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			URI:         InstructionsURI,
			Name:        "transcript-instructions",
			Description: "Editorial instructions sent with every transcript chunk",
			MIMEType:    "text/plain",
		},
		{
			URI:         SpeakerLabelsURI,
			Name:        "transcript-speaker-labels",
			Description: "Speaker labels rendered in bold at the start of a line",
			MIMEType:    "application/json",
		},
	}
}

// ReadResource reads a resource by URI
func (h *TranscriptResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !strings.HasPrefix(uri, scheme) {
		return nil, fmt.Errorf("invalid URI scheme, expected %s", scheme)
	}
	path := strings.TrimPrefix(uri, scheme)

	switch {
	case path == "instructions":
		return textResult(uri, "text/plain", llm.Instructions()), nil
	case path == "speaker-labels":
		return jsonResult(uri, map[string]any{
			"speaker_labels": layout.SpeakerLabels,
			"heading_open":   layout.HeadingOpen,
			"heading_close":  layout.HeadingClose,
		})
	case strings.HasPrefix(path, "date/"):
		filename, err := url.PathUnescape(strings.TrimPrefix(path, "date/"))
		if err != nil {
			return nil, fmt.Errorf("invalid filename in URI: %w", err)
		}
		date, err := datestamp.Extract(filename)
		if err != nil {
			return nil, err
		}
		return jsonResult(uri, date)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeType,
				Text:     text,
			},
		},
	}
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return textResult(uri, "application/json", string(content)), nil
}
