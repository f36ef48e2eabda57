package layout

import (
	"bufio"
	"io"
	"math"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// TextRenderer writes one UTF-8 line per classified line with the markers
// restored. With TextPageLines set, pages are separated by a form feed.
type TextRenderer struct {
	cfg config.LayoutConfig
}

func NewTextRenderer(cfg config.LayoutConfig) *TextRenderer {
	return &TextRenderer{cfg: cfg}
}

func (r *TextRenderer) Format() models.OutputFormat { return models.FormatText }
func (r *TextRenderer) ContentType() string         { return "text/plain; charset=utf-8" }

func (r *TextRenderer) Render(w io.Writer, doc models.FormattedDocument) error {
	bw := bufio.NewWriter(w)
	c := &textCanvas{w: bw}

	// One unit per line, no margins.
	geo := geometry{width: math.Inf(1), height: math.Inf(1), pitch: 1}
	if r.cfg.TextPageLines > 0 {
		geo.height = float64(r.cfg.TextPageLines)
	}

	p := newPaginator(geo, c)
	for _, l := range doc.Lines {
		var segs []segment
		if l.Kind != models.LineBlank {
			segs = []segment{{text: PlainText(l)}}
		}
		p.line(segs)
		if len(segs) == 0 {
			c.newline()
		}
	}

	if c.err == nil {
		c.err = bw.Flush()
	}
	if c.err != nil {
		return &RenderError{Format: models.FormatText, Err: c.err}
	}
	return nil
}

type textCanvas struct {
	w     *bufio.Writer
	pages int
	err   error
}

func (c *textCanvas) write(s string) {
	if c.err != nil {
		return
	}
	_, c.err = c.w.WriteString(s)
}

func (c *textCanvas) newline() { c.write("\n") }

func (c *textCanvas) AddPage() {
	if c.pages > 0 {
		c.write("\f")
	}
	c.pages++
}

func (c *textCanvas) DrawLine(_, _ float64, segs []segment) {
	for _, seg := range segs {
		c.write(seg.text)
	}
	c.newline()
}
