// Package label turns raw QR asset names into bilingual bed labels.
package label

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"qrbatch/internal/domain"
)

const (
	// FloorMarker follows the floor number in a raw identifier.
	FloorMarker = "F"
	// BedMarker follows the bed number in a raw identifier.
	BedMarker = "床"
	// BedPhrase is the English rendering of BedMarker.
	BedPhrase = "BED"
)

var (
	imageExt   = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)
	floorRun   = regexp.MustCompile(`(\d+)` + regexp.QuoteMeta(FloorMarker))
	bedRun     = regexp.MustCompile(`(\d+)` + regexp.QuoteMeta(BedMarker))
	englishBed = regexp.MustCompile(`(\d+)` + regexp.QuoteMeta(BedPhrase))
)

// Formatter derives labels from raw identifiers. It holds no mutable state
// and is safe for concurrent use.
type Formatter struct {
	table     Table
	separated *regexp.Regexp
}

// NewFormatter builds a formatter over the given translation table. A nil
// table selects DefaultTable.
func NewFormatter(table Table) *Formatter {
	if table == nil {
		table = DefaultTable
	}
	f := &Formatter{table: table}
	if units := table.Units(); len(units) > 0 {
		quoted := make([]string, len(units))
		for i, u := range units {
			quoted[i] = regexp.QuoteMeta(u)
		}
		f.separated = regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)(\d+)` +
			regexp.QuoteMeta(FloorMarker) + `(\d+) ` + regexp.QuoteMeta(BedPhrase))
	}
	return f
}

// Format never fails: tokens missing from the table pass through unchanged.
func (f *Formatter) Format(raw string) domain.Label {
	text := width.Narrow.String(strings.TrimSpace(raw))
	text = imageExt.ReplaceAllString(text, "")
	text = padRuns(floorRun, text, FloorMarker)
	text = padRuns(bedRun, text, BedMarker)

	english := text
	for _, e := range f.table {
		if e.Key == "" {
			continue
		}
		english = strings.ReplaceAll(english, e.Key, e.Phrase)
	}
	english = englishBed.ReplaceAllStringFunc(english, func(m string) string {
		digits := strings.TrimSuffix(m, BedPhrase)
		return pad2(digits) + " " + BedPhrase
	})
	if f.separated != nil {
		english = replaceFirst(f.separated, english, "${1} - ${2}"+FloorMarker+" - ${3} "+BedPhrase)
	}

	return domain.Label{Chinese: text, English: english}
}

func padRuns(re *regexp.Regexp, s, marker string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return pad2(strings.TrimSuffix(m, marker)) + marker
	})
}

func pad2(digits string) string {
	if len(digits) >= 2 {
		return digits
	}
	return strings.Repeat("0", 2-len(digits)) + digits
}

func replaceFirst(re *regexp.Regexp, s, template string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	var dst []byte
	dst = re.ExpandString(dst, template, s, loc)
	return s[:loc[0]] + string(dst) + s[loc[1]:]
}
