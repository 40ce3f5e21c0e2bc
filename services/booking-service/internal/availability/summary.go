package availability

import (
	"cloud.google.com/go/civil"
)

// DaySummary is one row of the date picker.
type DaySummary struct {
	Date            civil.Date
	HasAvailability bool
	AvailableCount  int
}

// SummarizeRange runs CalculateSlotsForDate once for every date from today
// (host time zone) through LastBookableDate, inclusive. in.Date is ignored.
func SummarizeRange(in DayInput) []DaySummary {
	p := in.Policy
	if !p.IsActive {
		return []DaySummary{}
	}
	today := civil.DateOf(in.Now.In(p.Location()))
	last := LastBookableDate(p, in.Now)
	out := make([]DaySummary, 0, last.DaysSince(today)+1)
	for d := today; !d.After(last); d = d.AddDays(1) {
		in.Date = d
		n := len(AvailableOnly(CalculateSlotsForDate(in)))
		out = append(out, DaySummary{Date: in.Date, HasAvailability: n > 0, AvailableCount: n})
	}
	return out
}
