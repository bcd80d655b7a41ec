package ics

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	ical "github.com/arran4/golang-ical"

	appLog "studycal/internal/log"
	"studycal/internal/schedule"
)

type parsedSubject struct {
	start schedule.Day
	subj  schedule.Subject
}

// ParseSubjects reads an ICS feed where each all-day VEVENT is one subject.
// Subjects are ordered by DTSTART; the span DTSTART..DTEND (exclusive) is the
// duration, and a missing DTEND means one day.
//
// Events that are not all-day or lack a summary are logged and skipped. A
// feed with no usable events is an error.
func ParseSubjects(body []byte) ([]schedule.Subject, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse: %w", err)
	}

	parsed := make([]parsedSubject, 0)
	for _, ve := range cal.Events() {
		ps, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "uid", ve.Id())
			continue
		}
		parsed = append(parsed, ps)
	}
	if len(parsed) == 0 {
		return nil, errors.New("ics: no all-day events found")
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].start.Before(parsed[j].start)
	})

	out := make([]schedule.Subject, len(parsed))
	for i, ps := range parsed {
		ps.subj.OrderIndex = i
		out[i] = ps.subj
	}
	appLog.Debug("ics parse completed", "subjects", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (parsedSubject, error) {
	var out parsedSubject

	summary := ve.GetProperty(ical.ComponentPropertySummary)
	if summary == nil || summary.Value == "" {
		return out, errors.New("missing SUMMARY")
	}

	st, err := ve.GetAllDayStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	// Floating dates come back in time.Local; only the civil date matters.
	start := schedule.FromTime(st)

	days := 1
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		et, err := ve.GetAllDayEndAt()
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		end := schedule.FromTime(et)
		days = end.Sub(start)
		if days < 1 {
			return out, fmt.Errorf("DTEND %s is not after DTSTART %s", end, start)
		}
	}

	color := ""
	if p := ve.GetProperty(ical.ComponentPropertyColor); p != nil {
		color = p.Value
	}

	out.start = start
	out.subj = schedule.Subject{
		Name:         summary.Value,
		DurationDays: days,
		Color:        color,
	}
	return out, nil
}
