package schedule

import "time"

// Cell is one slot of a month grid. Blank cells pad the first week and carry
// no date, no subject and IsToday false.
type Cell struct {
	Blank   bool              `json:"blank"`
	Date    Day               `json:"date"`
	Subject *ScheduledSubject `json:"subject,omitempty"`
	IsToday bool              `json:"is_today"`
}

// Month is a renderable month grid.
type Month struct {
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	DaysInMonth  int        `json:"days_in_month"`
	FirstWeekday int        `json:"first_weekday"` // civil weekday of day 1, Sunday = 0
	WeekStart    int        `json:"week_start"`
	Cells        []Cell     `json:"cells"`
}

// GridOptions tunes the layout of BuildMonthWithOptions.
type GridOptions struct {
	// WeekStart is the weekday shown in the first column. Sunday by default.
	WeekStart time.Weekday
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the length of month in year, 28 to 31.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	year, month = normalizeMonth(year, int(month))
	return Date(year, month+1, 0).Day()
}

// Weekday returns the civil weekday of the given date, Sunday = 0.
func Weekday(year int, month time.Month, day int) time.Weekday {
	return Date(year, month, day).Weekday()
}

// ShiftMonth moves (year, month) by delta months, rolling over year
// boundaries in both directions.
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	return normalizeMonth(year, int(month)+delta)
}

// BuildMonth lays out the given month with Sunday in the first column. Each
// day cell carries the scheduled subject that owns it, if any, and whether
// it is today.
func BuildMonth(year int, month time.Month, sched Schedule, today Day) Month {
	return BuildMonthWithOptions(year, month, sched, today, GridOptions{})
}

// BuildMonthWithOptions is BuildMonth with a configurable first column.
// Months outside 1..12 are normalized into the adjacent years.
func BuildMonthWithOptions(year int, month time.Month, sched Schedule, today Day, opts GridOptions) Month {
	year, month = normalizeMonth(year, int(month))

	days := DaysInMonth(year, month)
	first := Weekday(year, month, 1)
	lead := (int(first) - int(opts.WeekStart) + 7) % 7

	m := Month{
		Year:         year,
		Month:        month,
		DaysInMonth:  days,
		FirstWeekday: int(first),
		WeekStart:    int(opts.WeekStart),
		Cells:        make([]Cell, 0, lead+days),
	}

	for i := 0; i < lead; i++ {
		m.Cells = append(m.Cells, Cell{Blank: true})
	}

	for day := 1; day <= days; day++ {
		d := Date(year, month, day)
		c := Cell{Date: d, IsToday: d == today}
		if s, ok := FindSubjectForDate(sched, d); ok {
			c.Subject = &s
		}
		m.Cells = append(m.Cells, c)
	}

	return m
}

// Weeks splits the cells into rows of seven, padding the last row with blank
// cells.
func (m Month) Weeks() [][]Cell {
	var rows [][]Cell
	for i := 0; i < len(m.Cells); i += 7 {
		end := i + 7
		row := make([]Cell, 7)
		if end > len(m.Cells) {
			end = len(m.Cells)
			for j := end - i; j < 7; j++ {
				row[j] = Cell{Blank: true}
			}
		}
		copy(row, m.Cells[i:end])
		rows = append(rows, row)
	}
	return rows
}

func normalizeMonth(year, month int) (int, time.Month) {
	m := month - 1
	year += floorDiv(m, 12)
	return year, time.Month(floorMod(m, 12) + 1)
}
