package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.February, 29), got)
	assert.Equal(t, "2024-02-29", got.String())

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestDateOfTruncatesToUTCDay(t *testing.T) {
	zone := time.FixedZone("UTC-3", -3*3600)
	// 23:30 local on the 9th is already the 10th in UTC.
	got := DateOf(time.Date(2024, time.March, 9, 23, 30, 0, 0, zone))
	assert.Equal(t, d(2024, time.March, 10), got)
}

func TestClampDueDay(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		due   int
		want  int
	}{
		{"within month", 2024, time.March, 15, 15},
		{"anchor 31 in april", 2024, time.April, 31, 30},
		{"anchor 31 in february", 2023, time.February, 31, 28},
		{"anchor 31 in leap february", 2024, time.February, 31, 29},
		{"anchor 30 in february", 2023, time.February, 30, 28},
		{"zero collapses to first", 2024, time.March, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampDueDay(tt.year, tt.month, tt.due))
		})
	}
}

func TestMostRecentDueDate(t *testing.T) {
	tests := []struct {
		name  string
		today Date
		due   int
		want  Date
	}{
		{"due already passed this month", d(2024, time.March, 20), 15, d(2024, time.March, 15)},
		{"due is today", d(2024, time.March, 15), 15, d(2024, time.March, 15)},
		{"due still ahead rolls back a month", d(2024, time.March, 10), 15, d(2024, time.February, 15)},
		{"january rolls back across the year", d(2024, time.January, 5), 10, d(2023, time.December, 10)},
		{"rollback month clamps anchor", d(2024, time.March, 5), 31, d(2024, time.February, 29)},
		{"clamped due on leap day counts as reached", d(2024, time.February, 29), 31, d(2024, time.February, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MostRecentDueDate(tt.today, tt.due))
		})
	}
}

func TestAddCycles(t *testing.T) {
	tests := []struct {
		name string
		base Date
		due  int
		n    int
		want Date
	}{
		{"plain month forward", d(2024, time.March, 15), 15, 1, d(2024, time.April, 15)},
		{"into short month clamps", d(2024, time.January, 31), 31, 1, d(2024, time.February, 29)},
		{"anchor recovers after short month", d(2024, time.February, 29), 31, 1, d(2024, time.March, 31)},
		{"across year boundary", d(2023, time.November, 30), 30, 3, d(2024, time.February, 29)},
		{"backward one cycle", d(2024, time.March, 31), 31, -1, d(2024, time.February, 29)},
		{"zero cycles reclamps only", d(2024, time.February, 29), 31, 0, d(2024, time.February, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddCycles(tt.base, tt.due, tt.n))
		})
	}
}

func TestAddCyclesDoesNotDrift(t *testing.T) {
	// Stepping one cycle at a time through short months must land on the
	// same dates as one large jump.
	base := d(2024, time.January, 31)
	step := base
	for i := 0; i < 12; i++ {
		step = AddCycles(step, 31, 1)
	}
	assert.Equal(t, AddCycles(base, 31, 12), step)
	assert.Equal(t, d(2025, time.January, 31), step)
}

func TestEvaluate(t *testing.T) {
	paid := func(year int, month time.Month, day int) *Date {
		v := d(year, month, day)
		return &v
	}
	tests := []struct {
		name      string
		today     Date
		due       int
		paidUntil *Date
		want      Assessment
	}{
		{
			name:      "never paid is delinquent",
			today:     d(2024, time.March, 20),
			due:       15,
			paidUntil: nil,
			want: Assessment{
				DueDate:     d(2024, time.March, 15),
				NextDueDate: d(2024, time.April, 15),
				Situation:   SituationDelinquent,
			},
		},
		{
			name:      "paid exactly to the due date is current",
			today:     d(2024, time.March, 20),
			due:       15,
			paidUntil: paid(2024, time.March, 15),
			want: Assessment{
				DueDate:     d(2024, time.March, 15),
				NextDueDate: d(2024, time.April, 15),
				Situation:   SituationCurrent,
			},
		},
		{
			name:      "paid one day short is delinquent",
			today:     d(2024, time.March, 20),
			due:       15,
			paidUntil: paid(2024, time.March, 14),
			want: Assessment{
				DueDate:     d(2024, time.March, 15),
				NextDueDate: d(2024, time.April, 15),
				Situation:   SituationDelinquent,
			},
		},
		{
			name:      "paid ahead is current",
			today:     d(2024, time.March, 20),
			due:       15,
			paidUntil: paid(2024, time.June, 15),
			want: Assessment{
				DueDate:     d(2024, time.March, 15),
				NextDueDate: d(2024, time.April, 15),
				Situation:   SituationCurrent,
			},
		},
		{
			name:      "leap day anchor 31",
			today:     d(2024, time.February, 29),
			due:       31,
			paidUntil: paid(2024, time.February, 29),
			want: Assessment{
				DueDate:     d(2024, time.February, 29),
				NextDueDate: d(2024, time.March, 31),
				Situation:   SituationCurrent,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.today, tt.due, tt.paidUntil))
		})
	}
}

func TestNextPaidUntil(t *testing.T) {
	paid := func(year int, month time.Month, day int) *Date {
		v := d(year, month, day)
		return &v
	}
	tests := []struct {
		name      string
		today     Date
		due       int
		paidUntil *Date
		months    int
		want      Date
	}{
		{
			// One month from a never-paid member covers exactly the owed cycle.
			name:   "first payment catches up to the owed due date",
			today:  d(2024, time.March, 20),
			due:    15,
			months: 1,
			want:   d(2024, time.March, 15),
		},
		{
			name:   "multi month catch up extends past today",
			today:  d(2024, time.March, 20),
			due:    15,
			months: 3,
			want:   d(2024, time.May, 15),
		},
		{
			name:      "stale paid until is ignored in favour of the owed cycle",
			today:     d(2024, time.March, 20),
			due:       15,
			paidUntil: paid(2023, time.November, 15),
			months:    1,
			want:      d(2024, time.March, 15),
		},
		{
			name:      "paid ahead extends from banked coverage",
			today:     d(2024, time.March, 20),
			due:       15,
			paidUntil: paid(2024, time.May, 15),
			months:    2,
			want:      d(2024, time.July, 15),
		},
		{
			name:      "paid exactly to current due extends one cycle",
			today:     d(2024, time.March, 20),
			due:       15,
			paidUntil: paid(2024, time.March, 15),
			months:    1,
			want:      d(2024, time.April, 15),
		},
		{
			name:   "anchor 31 clamps through february",
			today:  d(2024, time.March, 5),
			due:    31,
			months: 1,
			want:   d(2024, time.February, 29),
		},
		{
			name:      "anchor 31 recovers to month end after february",
			today:     d(2024, time.March, 5),
			due:       31,
			paidUntil: paid(2024, time.February, 29),
			months:    1,
			want:      d(2024, time.March, 31),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextPaidUntil(tt.today, tt.due, tt.paidUntil, tt.months)
			assert.Equal(t, tt.want, got)
			if tt.paidUntil != nil {
				assert.False(t, got.Before(*tt.paidUntil), "paid until must never move backwards")
			}
		})
	}
}

func TestNextPaidUntilMakesMemberCurrent(t *testing.T) {
	// Registering a single month from any delinquent state must always
	// produce a current member.
	todays := []Date{
		d(2024, time.January, 1),
		d(2024, time.February, 29),
		d(2024, time.March, 31),
		d(2024, time.December, 15),
	}
	for _, today := range todays {
		for _, due := range []int{1, 15, 28, 31} {
			got := NextPaidUntil(today, due, nil, 1)
			assessment := Evaluate(today, due, &got)
			require.Equal(t, SituationCurrent, assessment.Situation,
				"today=%s due=%d paidUntil=%s", today, due, got)
		}
	}
}
