package schedule

import (
	"sort"
	"time"
)

// FindSubjectForDate returns the scheduled subject whose range contains d.
//
// sched is expected to be sorted and contiguous, as Allocate produces it; the
// lookup is a binary search on start days. A malformed schedule never panics,
// it just may miss a match.
func FindSubjectForDate(sched Schedule, d Day) (ScheduledSubject, bool) {
	// First entry that starts after d; the candidate is the one before it.
	i := sort.Search(len(sched), func(i int) bool {
		return sched[i].Start.After(d)
	})
	if i == 0 {
		return ScheduledSubject{}, false
	}
	cand := sched[i-1]
	if !cand.Contains(d) {
		return ScheduledSubject{}, false
	}
	return cand, true
}

// FindSubjectForTime is FindSubjectForDate for an instant; the time-of-day is
// dropped using t's own location.
func FindSubjectForTime(sched Schedule, t time.Time) (ScheduledSubject, bool) {
	return FindSubjectForDate(sched, FromTime(t))
}
