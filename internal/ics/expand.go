package ics

import (
	"errors"

	"github.com/teambition/rrule-go"

	appLog "studycal/internal/log"
	"studycal/internal/schedule"
)

const defaultMaxAgendaDays = 366

// AgendaDay is one calendar day of a scheduled subject.
type AgendaDay struct {
	Date    schedule.Day              `json:"date"`
	Subject schedule.ScheduledSubject `json:"subject"`
	// DayNumber counts from 1 on the subject's first day.
	DayNumber int `json:"day_number"`
}

// AgendaResult wraps the expanded days and whether the cap cut them short.
type AgendaResult struct {
	Days      []AgendaDay `json:"days"`
	Truncated bool        `json:"truncated"`
}

// ExpandAgenda lists every scheduled day inside [from, to], in date order.
// Each subject is expanded as a FREQ=DAILY rule with COUNT=DurationDays
// starting on its first day. At most max days are returned; max <= 0 uses
// a one-year cap.
func ExpandAgenda(sched schedule.Schedule, from, to schedule.Day, max int) (AgendaResult, error) {
	var result AgendaResult

	if to.Before(from) {
		return result, errors.New("expand: to is before from")
	}
	if max <= 0 {
		max = defaultMaxAgendaDays
	}

	winStart := from.Time(nil)
	winEnd := to.Time(nil)

	for _, ss := range sched {
		if ss.End.Before(from) || ss.Start.After(to) {
			continue
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.DAILY,
			Dtstart: ss.Start.Time(nil),
			Count:   ss.Subject.DurationDays,
		})
		if err != nil {
			appLog.Error("expand rrule build failed", err, "subject", ss.Subject.Name)
			return result, err
		}

		for _, t := range rule.Between(winStart, winEnd, true) {
			if len(result.Days) >= max {
				result.Truncated = true
				appLog.Info("agenda truncated", "max", max, "subject", ss.Subject.Name)
				return result, nil
			}
			d := schedule.FromTime(t)
			result.Days = append(result.Days, AgendaDay{
				Date:      d,
				Subject:   ss,
				DayNumber: d.Sub(ss.Start) + 1,
			})
		}
	}
	return result, nil
}
