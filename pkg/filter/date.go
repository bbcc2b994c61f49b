// ABOUTME: Date normalization to comparable YYYYMMDD integers
// ABOUTME: Unparseable text maps to InvalidDate

package filter

import (
	"strings"
	"time"
)

// InvalidDate is returned by NormalizeDate for text in no accepted layout.
// It sorts before every valid date.
const InvalidDate = 0

// Accepted operand layouts, tried in order
var operandDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
}

// NormalizeDate parses text as yyyy-MM-dd or MM/dd/yyyy and returns it as
// the integer YYYYMMDD
func NormalizeDate(text string) int {
	d, ok := parseDate(text)
	if !ok {
		return InvalidDate
	}
	return d
}

func parseDate(text string) (int, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range operandDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return dateKey(t), true
		}
	}
	return InvalidDate, false
}

// dateKey encodes the calendar day of t. The zero time is InvalidDate.
func dateKey(t time.Time) int {
	if t.IsZero() {
		return InvalidDate
	}
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
