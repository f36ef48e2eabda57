// Package layout classifies the lines of an assembled transcript and renders
// them to PDF, DOCX or plain text.
package layout

import (
	"strings"

	"github.com/Epistemic-Technology/transcript-mcp/models"
)

const (
	HeadingOpen  = "＜"
	HeadingClose = "＞"
)

// SpeakerLabels is the fixed speaker vocabulary. Each label is four
// characters including its brackets.
var SpeakerLabels = []string{
	"【知事】",
	"【記者】",
	"【司会】",
	"【職員】",
	"【局長】",
}

// ClassifyLine trims s and classifies it. Rules are tried in order:
// heading marker, speaker label, body.
func ClassifyLine(s string) models.Line {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Line{Kind: models.LineBlank}
	}
	if strings.HasPrefix(s, HeadingOpen) {
		text := strings.TrimPrefix(s, HeadingOpen)
		text = strings.TrimSuffix(text, HeadingClose)
		return models.Line{Kind: models.LineHeading, Text: strings.TrimSpace(text)}
	}
	for _, label := range SpeakerLabels {
		if strings.HasPrefix(s, label) {
			return models.Line{
				Kind:  models.LineSpeaker,
				Label: label,
				Text:  strings.TrimSpace(strings.TrimPrefix(s, label)),
			}
		}
	}
	return models.Line{Kind: models.LineBody, Text: s}
}

// Classify splits text into lines and classifies each. Blank lines are kept
// so paginated renderers can give them height.
func Classify(title, text string) models.FormattedDocument {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]models.Line, 0, len(raw))
	for _, s := range raw {
		lines = append(lines, ClassifyLine(s))
	}
	return models.FormattedDocument{Title: title, Lines: lines}
}

// PlainText renders a classified line back to a single text line, markers
// restored.
func PlainText(l models.Line) string {
	switch l.Kind {
	case models.LineHeading:
		return HeadingOpen + l.Text + HeadingClose
	case models.LineSpeaker:
		return l.Label + l.Text
	case models.LineBody:
		return l.Text
	default:
		return ""
	}
}
