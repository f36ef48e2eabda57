package layout

import (
	"fmt"
	"io"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// Renderer writes a classified transcript in one output format.
type Renderer interface {
	Render(w io.Writer, doc models.FormattedDocument) error
	Format() models.OutputFormat
	ContentType() string
}

// RenderError wraps a failure of the output backend.
type RenderError struct {
	Format models.OutputFormat
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Message is the user-facing description.
func (e *RenderError) Message() string {
	return fmt.Sprintf("%s形式の出力ファイルを作成できませんでした。", e.Format)
}

// NewRenderer selects the renderer for format.
func NewRenderer(format models.OutputFormat, cfg config.LayoutConfig) (Renderer, error) {
	if err := config.ValidateFormat(format); err != nil {
		return nil, err
	}
	if err := cfg.ValidateFor(format); err != nil {
		return nil, err
	}
	switch format {
	case models.FormatDOCX:
		return NewDOCXRenderer(cfg), nil
	case models.FormatText:
		return NewTextRenderer(cfg), nil
	default:
		return NewPDFRenderer(cfg), nil
	}
}
