package layout

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

const embeddedFamily = "transcript"

// PDFRenderer draws every line, blanks included, at a fixed pitch inside
// fixed margins. Speaker labels are bold; headings are bold. Text is set in
// the TrueType font at FontPath, embedded as a subset.
type PDFRenderer struct {
	cfg config.LayoutConfig
}

func NewPDFRenderer(cfg config.LayoutConfig) *PDFRenderer {
	return &PDFRenderer{cfg: cfg}
}

func (r *PDFRenderer) Format() models.OutputFormat { return models.FormatPDF }
func (r *PDFRenderer) ContentType() string         { return "application/pdf" }

func (r *PDFRenderer) Render(w io.Writer, doc models.FormattedDocument) error {
	_, err := r.render(w, doc)
	return err
}

// render returns the number of pages written.
func (r *PDFRenderer) render(w io.Writer, doc models.FormattedDocument) (int, error) {
	pdf := gofpdf.New("P", "pt", r.cfg.PageSize, "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(r.cfg.Margin, r.cfg.Margin, r.cfg.Margin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("transcript-mcp", true)

	if r.cfg.FontPath == "" {
		return 0, &RenderError{Format: models.FormatPDF, Err: config.ErrNoFont}
	}
	bold := r.cfg.BoldFontPath
	if bold == "" {
		bold = r.cfg.FontPath
	}
	pdf.AddUTF8Font(embeddedFamily, "", r.cfg.FontPath)
	pdf.AddUTF8Font(embeddedFamily, "B", bold)
	if err := pdf.Error(); err != nil {
		return 0, &RenderError{Format: models.FormatPDF, Err: err}
	}

	c := &pdfCanvas{pdf: pdf, family: embeddedFamily, size: r.cfg.FontSize, current: -1}
	width, height := pdf.GetPageSize()
	geo := geometry{width: width, height: height, margin: r.cfg.Margin, pitch: r.cfg.LineHeight}

	p := newPaginator(geo, c)
	for _, segs := range visualLines(doc, width-2*geo.margin, c.measure) {
		p.line(segs)
	}
	pages := p.finish()

	if err := pdf.Output(w); err != nil {
		return 0, &RenderError{Format: models.FormatPDF, Err: err}
	}
	return pages, nil
}

type pdfCanvas struct {
	pdf     *gofpdf.Fpdf
	family  string
	size    float64
	current style
}

func (c *pdfCanvas) use(st style) {
	if st == c.current {
		return
	}
	fontStyle := ""
	if st == styleBold {
		fontStyle = "B"
	}
	c.pdf.SetFont(c.family, fontStyle, c.size)
	c.current = st
}

func (c *pdfCanvas) measure(st style, s string) float64 {
	c.use(st)
	return c.pdf.GetStringWidth(s)
}

func (c *pdfCanvas) AddPage() {
	c.pdf.AddPage()
}

func (c *pdfCanvas) DrawLine(x, y float64, segs []segment) {
	for _, seg := range segs {
		c.use(seg.style)
		if seg.text != "" {
			c.pdf.Text(x, y, seg.text)
		}
		x += c.pdf.GetStringWidth(seg.text)
	}
}
