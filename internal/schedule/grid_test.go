package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeapYears(t *testing.T) {
	tests := []struct {
		year int
		leap bool
		feb  int
	}{
		{2024, true, 29},
		{2023, false, 28},
		{2000, true, 29},
		{1900, false, 28},
		{2100, false, 28},
		{1600, true, 29},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.leap, IsLeapYear(tt.year), "year %d", tt.year)
		assert.Equal(t, tt.feb, DaysInMonth(tt.year, time.February), "year %d", tt.year)
		assert.Equal(t, tt.feb, BuildMonth(tt.year, time.February, nil, Day{}).DaysInMonth, "year %d", tt.year)
	}
}

func TestDaysInMonthMatchesTimePackage(t *testing.T) {
	for year := 1890; year <= 2110; year++ {
		for m := time.January; m <= time.December; m++ {
			want := time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
			require.Equal(t, want, DaysInMonth(year, m), "%d-%02d", year, m)
			require.Equal(t, time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Weekday(), Weekday(year, m, 1))
		}
	}
}

func TestShiftMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		delta int
		wantY int
		wantM time.Month
	}{
		{2024, time.January, -1, 2023, time.December},
		{2024, time.December, 1, 2025, time.January},
		{2024, time.June, 1, 2024, time.July},
		{2024, time.June, -1, 2024, time.May},
		{2024, time.March, -15, 2022, time.December},
		{2024, time.March, 22, 2026, time.January},
		{2024, time.March, 0, 2024, time.March},
	}
	for _, tt := range tests {
		y, m := ShiftMonth(tt.year, tt.month, tt.delta)
		assert.Equal(t, tt.wantY, y)
		assert.Equal(t, tt.wantM, m)
	}
}

func TestBuildMonthScenario(t *testing.T) {
	sched, err := Allocate(day("2024-01-01"), subjects("A", 3, "B", 2))
	require.NoError(t, err)

	m := BuildMonth(2024, time.January, sched, day("2024-01-01"))

	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, time.January, m.Month)
	assert.Equal(t, 31, m.DaysInMonth)
	assert.Equal(t, 1, m.FirstWeekday)
	require.Len(t, m.Cells, 1+31)

	lead := m.Cells[0]
	assert.True(t, lead.Blank)
	assert.Nil(t, lead.Subject)
	assert.False(t, lead.IsToday)

	first := m.Cells[1]
	assert.False(t, first.Blank)
	assert.Equal(t, day("2024-01-01"), first.Date)
	require.NotNil(t, first.Subject)
	assert.Equal(t, "A", first.Subject.Subject.Name)
	assert.True(t, first.IsToday)

	assert.Equal(t, "B", m.Cells[5].Subject.Subject.Name)
	assert.Nil(t, m.Cells[6].Subject)

	today := 0
	for _, c := range m.Cells {
		if c.IsToday {
			today++
		}
	}
	assert.Equal(t, 1, today)
}

func TestBuildMonthTodayElsewhere(t *testing.T) {
	m := BuildMonth(2024, time.March, nil, day("2024-04-01"))
	for _, c := range m.Cells {
		assert.False(t, c.IsToday)
	}
	// March 1 2024 is a Friday.
	assert.Equal(t, 5, m.FirstWeekday)
	assert.Len(t, m.Cells, 5+31)
}

func TestBuildMonthRangeAcrossMonths(t *testing.T) {
	sched, err := Allocate(day("2024-01-30"), subjects("A", 5))
	require.NoError(t, err)

	feb := BuildMonth(2024, time.February, sched, Day{})
	// Feb 1 2024 is a Thursday.
	require.Equal(t, 4, feb.FirstWeekday)
	for i := 1; i <= 3; i++ {
		c := feb.Cells[4+i-1]
		require.NotNil(t, c.Subject, "Feb %d", i)
		assert.Equal(t, "A", c.Subject.Subject.Name)
	}
	assert.Nil(t, feb.Cells[4+3].Subject)
}

func TestBuildMonthWeekStart(t *testing.T) {
	// September 2024 starts on a Sunday.
	sun := BuildMonth(2024, time.September, nil, Day{})
	assert.Equal(t, 0, sun.FirstWeekday)
	assert.False(t, sun.Cells[0].Blank)

	mon := BuildMonthWithOptions(2024, time.September, nil, Day{}, GridOptions{WeekStart: time.Monday})
	assert.Equal(t, 0, mon.FirstWeekday)
	assert.Equal(t, 1, mon.WeekStart)
	for i := 0; i < 6; i++ {
		assert.True(t, mon.Cells[i].Blank)
	}
	assert.Equal(t, day("2024-09-01"), mon.Cells[6].Date)
}

func TestBuildMonthNormalizesMonth(t *testing.T) {
	m := BuildMonth(2024, 13, nil, Day{})
	assert.Equal(t, 2025, m.Year)
	assert.Equal(t, time.January, m.Month)

	m = BuildMonth(2024, 0, nil, Day{})
	assert.Equal(t, 2023, m.Year)
	assert.Equal(t, time.December, m.Month)
}

func TestBuildMonthDoesNotAliasSchedule(t *testing.T) {
	sched, err := Allocate(day("2024-01-01"), subjects("A", 3))
	require.NoError(t, err)

	m := BuildMonth(2024, time.January, sched, Day{})
	m.Cells[1].Subject.End = day("2030-01-01")

	assert.Equal(t, day("2024-01-03"), sched[0].End)
	assert.Equal(t, day("2024-01-03"), m.Cells[2].Subject.End)
}

func TestWeeks(t *testing.T) {
	m := BuildMonth(2024, time.January, nil, Day{})
	weeks := m.Weeks()
	require.Len(t, weeks, 5)
	for _, w := range weeks {
		assert.Len(t, w, 7)
	}
	assert.True(t, weeks[0][0].Blank)
	assert.Equal(t, day("2024-01-01"), weeks[0][1].Date)
	assert.Equal(t, day("2024-01-31"), weeks[4][3].Date)
	assert.True(t, weeks[4][4].Blank)
	assert.True(t, weeks[4][6].Blank)
}
