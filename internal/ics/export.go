// Package ics converts course schedules to and from iCalendar and expands
// them into day-by-day agendas.
package ics

import (
	"fmt"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"studycal/internal/schedule"
)

const productID = "-//studycal//Course Schedule//ES"

// Export builds a calendar with one all-day VEVENT per scheduled subject.
// DTEND is exclusive, so it is the day after the subject's last day.
// UIDs are derived from the course id, position and name, so re-exporting an
// unchanged schedule yields the same UIDs.
func Export(courseName, courseID string, sched schedule.Schedule, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	if courseName != "" {
		cal.SetName(courseName)
	}

	stamp = stamp.UTC()
	for i, ss := range sched {
		ev := cal.AddEvent(EventUID(courseID, i, ss.Subject.Name))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(ss.Start.Time(nil))
		ev.SetAllDayEndAt(ss.End.AddDays(1).Time(nil))
		ev.SetSummary(ss.Subject.Name)
		ev.SetDescription(fmt.Sprintf("%s: %d días (%s a %s)", ss.Subject.Name, ss.Subject.DurationDays, ss.Start, ss.End))
		if ss.Subject.Color != "" {
			ev.SetColor(ss.Subject.Color)
		}
	}
	return cal
}

// EventUID returns the stable UID of the index-th subject of a course.
func EventUID(courseID string, index int, name string) string {
	key := courseID + "\x00" + strconv.Itoa(index) + "\x00" + name
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@studycal"
}
