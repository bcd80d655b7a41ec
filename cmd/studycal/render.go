package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"studycal/internal/schedule"
)

var weekdayAbbrev = [7]string{"Do", "Lu", "Ma", "Mi", "Ju", "Vi", "Sa"}

// printMonth writes a plain-text month grid followed by a legend of the
// subjects that appear in it. Today is bracketed.
func printMonth(w io.Writer, title string, m schedule.Month) {
	fmt.Fprintf(w, "%s: %04d-%02d\n", title, m.Year, int(m.Month))

	ws := time.Weekday(m.WeekStart)
	for i := 0; i < 7; i++ {
		fmt.Fprintf(w, " %-4s", weekdayAbbrev[(int(ws)+i)%7])
	}
	fmt.Fprintln(w)

	var (
		legend []*schedule.ScheduledSubject
		seen   = make(map[int]bool)
	)
	for _, week := range m.Weeks() {
		var b strings.Builder
		for _, c := range week {
			switch {
			case c.Blank:
				b.WriteString("     ")
			case c.IsToday:
				fmt.Fprintf(&b, "[%2d]%s", c.Date.Day(), marker(c))
			default:
				fmt.Fprintf(&b, " %2d %s", c.Date.Day(), marker(c))
			}
			if c.Subject != nil && !seen[c.Subject.Subject.OrderIndex] {
				seen[c.Subject.Subject.OrderIndex] = true
				legend = append(legend, c.Subject)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}

	for _, ss := range legend {
		fmt.Fprintf(w, "  %c %s (%d días, %s a %s)\n", letter(ss.Subject.OrderIndex), ss.Subject.Name, ss.Subject.DurationDays, ss.Start, ss.End)
	}
}

func marker(c schedule.Cell) string {
	if c.Subject == nil {
		return " "
	}
	return string(letter(c.Subject.Subject.OrderIndex))
}

func letter(i int) rune {
	return rune('A' + i%26)
}
