package layout

import (
	"math"

	"github.com/Epistemic-Technology/transcript-mcp/models"
)

type style int

const (
	styleRegular style = iota
	styleBold
)

type segment struct {
	style style
	text  string
}

// canvas is a page-oriented drawing surface. y is the baseline measured
// from the top of the page.
type canvas interface {
	AddPage()
	DrawLine(x, y float64, segs []segment)
}

// geometry describes a page in the canvas's units.
type geometry struct {
	width  float64
	height float64
	margin float64
	pitch  float64
}

const epsilon = 1e-6

// linesPerPage is floor((H-2m)/p).
func (g geometry) linesPerPage() int {
	return int(math.Floor((g.height-2*g.margin)/g.pitch + epsilon))
}

type pageState int

const (
	stateWriting pageState = iota
	statePageFull
)

// paginator places fixed-pitch lines top to bottom, starting a new page
// whenever the next baseline would fall below the bottom margin.
type paginator struct {
	geo   geometry
	c     canvas
	y     float64
	pages int
	state pageState
}

func newPaginator(geo geometry, c canvas) *paginator {
	// No page has been opened yet.
	return &paginator{geo: geo, c: c, state: statePageFull}
}

func (p *paginator) next() float64 {
	if p.state == stateWriting && p.y+p.geo.pitch > p.geo.height-p.geo.margin+epsilon {
		p.state = statePageFull
	}
	if p.state == statePageFull {
		p.c.AddPage()
		p.pages++
		p.y = p.geo.margin
		p.state = stateWriting
	}
	p.y += p.geo.pitch
	return p.y
}

// line writes one line. A line with no segments still takes its height.
func (p *paginator) line(segs []segment) {
	y := p.next()
	if len(segs) > 0 {
		p.c.DrawLine(p.geo.margin, y, segs)
	}
}

// finish makes sure the output has at least one page.
func (p *paginator) finish() int {
	if p.pages == 0 {
		p.c.AddPage()
		p.pages++
	}
	return p.pages
}

// measureFunc returns the drawn width of s in the given style.
type measureFunc func(st style, s string) float64

// visualLines turns classified lines into drawable lines, wrapping text
// wider than width. Blank lines become empty lines.
func visualLines(doc models.FormattedDocument, width float64, measure measureFunc) [][]segment {
	out := make([][]segment, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		switch l.Kind {
		case models.LineBlank:
			out = append(out, nil)
		case models.LineHeading:
			for _, part := range wrapText(l.Text, width, width, func(s string) float64 { return measure(styleBold, s) }) {
				out = append(out, []segment{{style: styleBold, text: part}})
			}
		case models.LineSpeaker:
			labelWidth := measure(styleBold, l.Label)
			parts := wrapText(l.Text, width-labelWidth, width, func(s string) float64 { return measure(styleRegular, s) })
			out = append(out, []segment{{style: styleBold, text: l.Label}, {style: styleRegular, text: parts[0]}})
			for _, part := range parts[1:] {
				out = append(out, []segment{{style: styleRegular, text: part}})
			}
		default:
			for _, part := range wrapText(l.Text, width, width, func(s string) float64 { return measure(styleRegular, s) }) {
				out = append(out, []segment{{style: styleRegular, text: part}})
			}
		}
	}
	return out
}

// wrapText breaks s at rune boundaries so each piece fits: the first piece
// in first, the rest in rest. A rune wider than the line is placed alone.
// It always returns at least one piece.
func wrapText(s string, first, rest float64, measure func(string) float64) []string {
	if s == "" || measure(s) <= first+epsilon {
		return []string{s}
	}
	var parts []string
	limit := first
	runes := []rune(s)
	start := 0
	for start < len(runes) {
		end := start + 1
		for end < len(runes) && measure(string(runes[start:end+1])) <= limit+epsilon {
			end++
		}
		parts = append(parts, string(runes[start:end]))
		start = end
		limit = rest
	}
	return parts
}
