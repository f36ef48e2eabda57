package models

// DateStamp is the conference date derived from an uploaded filename.
// Values are taken verbatim from the digits; no calendar check is made.
type DateStamp struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
	// Dotted is the numeric form without zero padding, e.g. "2025.3.28".
	Dotted string `json:"dotted"`
	// Era is the Japanese era form, e.g. "令和7年3月28日".
	Era string `json:"era"`
}

// SourceDocument is the ordered page texts of an uploaded PDF.
// Empty strings are pages with no extractable text.
type SourceDocument []string

// Chunk is one token-bounded slice of the extracted transcript.
type Chunk struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// RewriteResult is the service output for the chunk with the same Index.
type RewriteResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// LineKind classifies a line of the assembled transcript.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeading
	LineSpeaker
	LineBody
)

// String returns the string representation of the line kind
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeading:
		return "heading"
	case LineSpeaker:
		return "speaker"
	case LineBody:
		return "body"
	default:
		return "unknown"
	}
}

// Line is one classified line. For speaker lines Label holds the bracketed
// speaker token and Text the remainder; for headings Text has the markers
// stripped.
type Line struct {
	Kind  LineKind `json:"kind"`
	Label string   `json:"label,omitempty"`
	Text  string   `json:"text"`
}

// FormattedDocument is the classified form of the assembled transcript.
type FormattedDocument struct {
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// OutputFormat selects the renderer.
type OutputFormat string

const (
	FormatPDF  OutputFormat = "pdf"
	FormatDOCX OutputFormat = "docx"
	FormatText OutputFormat = "txt"
)

// SourceInfo contains information about where the PDF came from
type SourceInfo struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// TranscriptRequest is one upload to be formatted.
type TranscriptRequest struct {
	Filename string       `json:"filename"`
	Data     []byte       `json:"-"`
	Format   OutputFormat `json:"format,omitempty"`
}

// TranscriptResult is the rendered document and what went into it.
type TranscriptResult struct {
	Filename    string       `json:"filename"`
	Format      OutputFormat `json:"format"`
	ContentType string       `json:"content_type"`
	Document    []byte       `json:"document"`
	Text        string       `json:"text"`
	Date        DateStamp    `json:"date"`
	PageCount   int          `json:"page_count"`
	ChunkCount  int          `json:"chunk_count"`
}
