package layout

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

const docxFont = "MS Mincho"

// Page sizes in twentieths of a point.
var docxPageSizes = map[string][2]int{
	"a3":     {16838, 23811},
	"a4":     {11906, 16838},
	"a5":     {8391, 11906},
	"letter": {12240, 15840},
	"legal":  {12240, 20160},
}

// DOCXRenderer writes a WordprocessingML package: headings as Heading 1
// paragraphs, speaker lines as a bold label run followed by a body run.
// Blank lines produce no paragraph.
type DOCXRenderer struct {
	cfg config.LayoutConfig
}

func NewDOCXRenderer(cfg config.LayoutConfig) *DOCXRenderer {
	return &DOCXRenderer{cfg: cfg}
}

func (r *DOCXRenderer) Format() models.OutputFormat { return models.FormatDOCX }
func (r *DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (r *DOCXRenderer) Render(w io.Writer, doc models.FormattedDocument) error {
	if err := r.write(w, doc); err != nil {
		return &RenderError{Format: models.FormatDOCX, Err: err}
	}
	return nil
}

func (r *DOCXRenderer) write(w io.Writer, doc models.FormattedDocument) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"docProps/core.xml", coreXML(doc.Title)},
		{"word/styles.xml", r.stylesXML()},
		{"word/document.xml", r.documentXML(doc)},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(f, part.body); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func escape(s string) string {
	var b bytes.Buffer
	// Writing to a bytes.Buffer does not fail.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func run(text string, bold bool) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	if bold {
		b.WriteString("<w:rPr><w:b/></w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(escape(text))
	b.WriteString("</w:t></w:r>")
	return b.String()
}

func (r *DOCXRenderer) documentXML(doc models.FormattedDocument) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, l := range doc.Lines {
		switch l.Kind {
		case models.LineBlank:
			continue
		case models.LineHeading:
			b.WriteString(`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr>`)
			b.WriteString(run(l.Text, false))
		case models.LineSpeaker:
			b.WriteString("<w:p>")
			b.WriteString(run(l.Label, true))
			if l.Text != "" {
				b.WriteString(run(l.Text, false))
			}
		default:
			b.WriteString("<w:p>")
			b.WriteString(run(l.Text, false))
		}
		b.WriteString("</w:p>")
	}
	b.WriteString(r.sectionXML())
	b.WriteString("</w:body></w:document>")
	return b.String()
}

func twips(pt float64) int {
	return int(math.Round(pt * 20))
}

func (r *DOCXRenderer) sectionXML() string {
	size, ok := docxPageSizes[strings.ToLower(r.cfg.PageSize)]
	if !ok {
		size = docxPageSizes["a4"]
	}
	m := twips(r.cfg.Margin)
	return fmt.Sprintf(`<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="0" w:footer="0" w:gutter="0"/></w:sectPr>`,
		size[0], size[1], m, m, m, m)
}

func (r *DOCXRenderer) stylesXML() string {
	halfPoints := int(math.Round(r.cfg.FontSize * 2))
	return fmt.Sprintf(xml.Header+`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`+
		`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:eastAsia="%[1]s"/><w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/><w:lang w:val="ja-JP" w:eastAsia="ja-JP"/></w:rPr></w:rPrDefault></w:docDefaults>`+
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:pPr><w:spacing w:after="0" w:line="%[3]d" w:lineRule="exact"/></w:pPr></w:style>`+
		`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/><w:pPr><w:keepNext/><w:spacing w:before="%[3]d" w:after="0"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/></w:rPr></w:style>`+
		`</w:styles>`, docxFont, halfPoints, twips(r.cfg.LineHeight))
}

func coreXML(title string) string {
	return xml.Header + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		`<dc:title>` + escape(title) + `</dc:title><dc:creator>transcript-mcp</dc:creator></cp:coreProperties>`
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const rootRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`
