package schedule

import (
	"fmt"
	"time"
)

// DayLayout is the textual form of a Day (ISO 8601 calendar date).
const DayLayout = "2006-01-02"

// Day is a timezone-naive calendar day in the proleptic Gregorian calendar.
//
// It is stored as a day count relative to 1970-01-01, so it is comparable
// with == and every operation returns a new value. The zero value is
// 1970-01-01.
type Day struct {
	n int64
}

// Date returns the Day for the given civil date. Out-of-range month and day
// values are normalized the way time.Date normalizes them (e.g. January 32
// becomes February 1).
func Date(year int, month time.Month, day int) Day {
	// Normalize month overflow into the year first.
	m := int(month) - 1
	year += floorDiv(m, 12)
	m = floorMod(m, 12) + 1
	return Day{n: daysFromCivil(int64(year), int64(m), 1) + int64(day-1)}
}

// FromTime returns the calendar day t falls on in its own location. The
// time-of-day component is discarded.
func FromTime(t time.Time) Day {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("schedule: invalid day %q: %w", s, err)
	}
	return FromTime(t), nil
}

// Civil returns the year, month and day of d.
func (d Day) Civil() (year int, month time.Month, day int) {
	y, m, dd := civilFromDays(d.n)
	return int(y), time.Month(m), int(dd)
}

func (d Day) Year() int {
	y, _, _ := d.Civil()
	return y
}

func (d Day) Month() time.Month {
	_, m, _ := d.Civil()
	return m
}

func (d Day) Day() int {
	_, _, dd := d.Civil()
	return dd
}

// Weekday returns the day of the week, Sunday = 0.
func (d Day) Weekday() time.Weekday {
	// 1970-01-01 was a Thursday.
	return time.Weekday(floorMod64(d.n+4, 7))
}

// AddDays returns d shifted by n days.
func (d Day) AddDays(n int) Day {
	return Day{n: d.n + int64(n)}
}

// Sub returns the number of days from o to d.
func (d Day) Sub(o Day) int {
	return int(d.n - o.n)
}

func (d Day) Before(o Day) bool { return d.n < o.n }
func (d Day) After(o Day) bool  { return d.n > o.n }

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int {
	switch {
	case d.n < o.n:
		return -1
	case d.n > o.n:
		return 1
	default:
		return 0
	}
}

// Time returns midnight of d in loc (UTC when loc is nil).
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, dd := d.Civil()
	return time.Date(y, m, dd, 0, 0, 0, 0, loc)
}

func (d Day) String() string {
	y, m, dd := d.Civil()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), dd)
}

// MarshalText implements encoding.TextMarshaler.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// daysFromCivil and civilFromDays follow Howard Hinnant's public-domain
// chrono algorithms, valid for the whole proleptic Gregorian calendar.
func daysFromCivil(y, m, d int64) int64 {
	if m <= 2 {
		y--
	}
	era := floorDiv64(y, 400)
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(z int64) (y, m, d int64) {
	z += 719468
	era := floorDiv64(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y = yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = doy - (153*mp+2)/5 + 1
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return y, m, d
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func floorDiv64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod64(a, b int64) int64 {
	return a - floorDiv64(a, b)*b
}
