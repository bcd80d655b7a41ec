// Package schedule lays out an ordered list of subjects as contiguous
// calendar ranges from an anchor day, re-derives the anchor from a pinned
// subject start, and builds month grids over the result.
//
// Everything here is a pure function of its arguments: no clock, no I/O,
// no shared state. Callers recompute on every input change.
package schedule

// Subject is one unit of a course, occupying DurationDays consecutive days.
// Name is a display label and is not guaranteed to be unique; Color is an
// opaque display token passed through untouched.
type Subject struct {
	Name         string `json:"name" yaml:"name"`
	DurationDays int    `json:"duration_days" yaml:"duration_days"`
	Color        string `json:"color" yaml:"color"`
	OrderIndex   int    `json:"order_index" yaml:"order_index"`
}

// ScheduledSubject pairs a subject with its inclusive calendar range.
// End is always Start + DurationDays - 1.
type ScheduledSubject struct {
	Subject Subject `json:"subject"`
	Start   Day     `json:"start"`
	End     Day     `json:"end"`
}

// Contains reports whether d falls inside the inclusive range.
func (s ScheduledSubject) Contains(d Day) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

// Days returns the number of days in the range.
func (s ScheduledSubject) Days() int {
	return s.End.Sub(s.Start) + 1
}

// Schedule is the ordered, contiguous layout produced by Allocate.
type Schedule []ScheduledSubject

// Start returns the first day of the schedule. ok is false for an empty
// schedule.
func (s Schedule) Start() (Day, bool) {
	if len(s) == 0 {
		return Day{}, false
	}
	return s[0].Start, true
}

// End returns the last day of the schedule.
func (s Schedule) End() (Day, bool) {
	if len(s) == 0 {
		return Day{}, false
	}
	return s[len(s)-1].End, true
}

// TotalDays is the number of days covered from first start to last end.
func (s Schedule) TotalDays() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].End.Sub(s[0].Start) + 1
}
