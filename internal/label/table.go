package label

// Entry maps one Chinese token to its English phrase. Unit entries name a
// ward and take part in the "<unit> - <floor>F - <bed> BED" normalization.
type Entry struct {
	Key    string
	Phrase string
	Unit   bool
}

// Table is applied in order; earlier entries win when keys overlap.
type Table []Entry

// DefaultTable is the hospital ward vocabulary printed on bed QR labels.
var DefaultTable = Table{
	{Key: "一住", Phrase: "ONE INPATIENT UNITS", Unit: true},
	{Key: "二住", Phrase: "TWO INPATIENT UNITS", Unit: true},
	{Key: "三住", Phrase: "THREE INPATIENT UNITS", Unit: true},
	{Key: "四住", Phrase: "FOUR INPATIENT UNITS", Unit: true},
	{Key: "五住", Phrase: "FIVE INPATIENT UNITS", Unit: true},
	{Key: "六住", Phrase: "SIX INPATIENT UNITS", Unit: true},
	{Key: "七住", Phrase: "SEVEN INPATIENT UNITS", Unit: true},
	{Key: "八住", Phrase: "EIGHT INPATIENT UNITS", Unit: true},
	{Key: "九住", Phrase: "NINE INPATIENT UNITS", Unit: true},
	{Key: "十住", Phrase: "TEN INPATIENT UNITS", Unit: true},
	{Key: "治未病", Phrase: "TREAT THE DISEASE"},
	{Key: BedMarker, Phrase: BedPhrase},
	{Key: FloorMarker, Phrase: FloorMarker},
}

// Units returns the phrases of unit entries in table order.
func (t Table) Units() []string {
	var out []string
	for _, e := range t {
		if e.Unit && e.Phrase != "" {
			out = append(out, e.Phrase)
		}
	}
	return out
}
