// Package datestamp derives the conference date from an upload's filename.
package datestamp

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// eraBaseYear is the year before Reiwa 1 (2019).
const eraBaseYear = 2018

const eraName = "令和"

// OutputSuffix is appended to the dotted date in output filenames.
const OutputSuffix = "知事記者会見"

// datePattern matches YYYYMMDD optionally wrapped in ( ) or [ ].
var datePattern = regexp.MustCompile(`[(\[]?(\d{4})(\d{2})(\d{2})[)\]]?`)

// MissingDateError is returned when a filename carries no YYYYMMDD run.
// No output can be named, so the whole job stops.
type MissingDateError struct {
	Filename string
}

func (e *MissingDateError) Error() string {
	return fmt.Sprintf("filename %q does not contain a date (expected YYYYMMDD)", e.Filename)
}

// Message returns the user-facing text.
func (e *MissingDateError) Message() string {
	return "ファイル名に日付が含まれていません（例：20250328）。"
}

// Extract returns the first YYYYMMDD date found in filename.
func Extract(filename string) (models.DateStamp, error) {
	m := datePattern.FindStringSubmatch(filename)
	if m == nil {
		return models.DateStamp{}, &MissingDateError{Filename: filename}
	}
	// Digit-only groups of fixed width always parse.
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return New(year, month, day), nil
}

// New builds a DateStamp with both derived views filled in.
func New(year, month, day int) models.DateStamp {
	return models.DateStamp{
		Year:   year,
		Month:  month,
		Day:    day,
		Dotted: fmt.Sprintf("%d.%d.%d", year, month, day),
		Era:    EraDate(year, month, day),
	}
}

// EraDate formats the date in the Reiwa calendar. The first year is written 元.
func EraDate(year, month, day int) string {
	eraYear := year - eraBaseYear
	y := strconv.Itoa(eraYear)
	if eraYear == 1 {
		y = "元"
	}
	return fmt.Sprintf("%s%s年%d月%d日", eraName, y, month, day)
}

// OutputFilename names the rendered document, e.g. "2025.3.28知事記者会見.pdf".
func OutputFilename(d models.DateStamp, ext string) string {
	return d.Dotted + OutputSuffix + "." + ext
}
