package documents

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// ExtractionError reports that the PDF backend could not read the upload.
// Page is 1-based, or 0 when the document as a whole failed.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract text from page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("read pdf: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Message returns the user-facing text.
func (e *ExtractionError) Message() string {
	return "PDFファイルを読み取れませんでした。ファイルが破損していないか確認してください。"
}

// PageSource yields the plain text of each page. Page numbers are 1-based.
// A page with no text layer returns "" and a nil error.
type PageSource interface {
	NumPage() int
	PageText(page int) (string, error)
}

// IsPDF reports whether data carries the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// Validate checks the PDF structure and returns its page count.
func Validate(data []byte) (int, error) {
	if !IsPDF(data) {
		return 0, &ExtractionError{Err: errors.New("missing %PDF header")}
	}
	conf := model.NewDefaultConfiguration()
	pageCount, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, &ExtractionError{Err: err}
	}
	return pageCount, nil
}

// ledongthucPages reads page text with github.com/ledongthuc/pdf.
type ledongthucPages struct {
	reader *pdf.Reader
	fonts  map[string]*pdf.Font
}

// OpenPages opens data for per-page text extraction.
func OpenPages(data []byte) (PageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	return &ledongthucPages{reader: r, fonts: make(map[string]*pdf.Font)}, nil
}

func (p *ledongthucPages) NumPage() int {
	return p.reader.NumPage()
}

func (p *ledongthucPages) PageText(num int) (text string, err error) {
	// The parser panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed page content: %v", r)
		}
	}()

	page := p.reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	for _, name := range page.Fonts() {
		if _, ok := p.fonts[name]; !ok {
			f := page.Font(name)
			p.fonts[name] = &f
		}
	}
	return page.GetPlainText(p.fonts)
}

// ReadPages collects the text of every page in order.
func ReadPages(src PageSource) (models.SourceDocument, error) {
	n := src.NumPage()
	doc := make(models.SourceDocument, 0, n)
	for i := 1; i <= n; i++ {
		text, err := src.PageText(i)
		if err != nil {
			return nil, &ExtractionError{Page: i, Err: err}
		}
		doc = append(doc, text)
	}
	return doc, nil
}

// BodyText joins the pages after the cover page with newlines. Pages that
// yield no text contribute nothing, not even a blank line; a page holding
// only whitespace still counts as text.
func BodyText(doc models.SourceDocument) string {
	if len(doc) <= 1 {
		return ""
	}
	parts := make([]string, 0, len(doc)-1)
	for _, page := range doc[1:] {
		if page == "" {
			continue
		}
		parts = append(parts, page)
	}
	return strings.Join(parts, "\n")
}

// ExtractText validates data and returns the body text and the page count.
func ExtractText(data []byte) (string, int, error) {
	pageCount, err := Validate(data)
	if err != nil {
		return "", 0, err
	}
	src, err := OpenPages(data)
	if err != nil {
		return "", 0, err
	}
	doc, err := ReadPages(src)
	if err != nil {
		return "", 0, err
	}
	return BodyText(doc), pageCount, nil
}
