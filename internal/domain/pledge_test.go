package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestPledge(t *testing.T, amount string, cadence PledgeCadence, start time.Time) *Pledge {
	t.Helper()
	p, err := NewPledge(uuid.New(), dec(amount), cadence, start)
	require.NoError(t, err)
	return p
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"mid month", Date(2024, time.January, 15), 1, Date(2024, time.February, 15)},
		{"leap year clamp", Date(2024, time.January, 31), 1, Date(2024, time.February, 29)},
		{"non leap clamp", Date(2023, time.January, 31), 1, Date(2023, time.February, 28)},
		{"quarter clamp", Date(2024, time.November, 30), 3, Date(2025, time.February, 28)},
		{"year rollover", Date(2024, time.December, 10), 1, Date(2025, time.January, 10)},
		{"annual from leap day", Date(2024, time.February, 29), 12, Date(2025, time.February, 28)},
		{"backwards", Date(2024, time.March, 31), -1, Date(2024, time.February, 29)},
		{"backwards across years", Date(2024, time.January, 5), -13, Date(2022, time.December, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.in, tt.n))
		})
	}
}

func TestNewPledge(t *testing.T) {
	p := newTestPledge(t, "50.00", PledgeMonthly, Date(2024, time.January, 15))

	assert.Equal(t, PledgeActive, p.Status)
	require.NotNil(t, p.NextExpectedDate)
	assert.Equal(t, Date(2024, time.February, 15), *p.NextExpectedDate)
	assert.True(t, p.TotalReceived.IsZero())

	_, err := NewPledge(uuid.New(), dec("0"), PledgeMonthly, Date(2024, time.January, 1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewPledge(uuid.New(), dec("10"), PledgeCadence("weekly"), Date(2024, time.January, 1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPledgeMonthlyEquivalent(t *testing.T) {
	tests := []struct {
		amount  string
		cadence PledgeCadence
		want    string
	}{
		{"100.00", PledgeMonthly, "100.00"},
		{"300.00", PledgeQuarterly, "100.00"},
		{"600.00", PledgeSemiAnnual, "100.00"},
		{"1200.00", PledgeAnnual, "100.00"},
		{"100.00", PledgeQuarterly, "33.33"},
		{"50.00", PledgeSemiAnnual, "8.33"},
	}
	for _, tt := range tests {
		p := &Pledge{Amount: dec(tt.amount), Cadence: tt.cadence}
		assert.Equal(t, tt.want, p.MonthlyEquivalent().StringFixed(2), "%s %s", tt.amount, tt.cadence)
	}
}

func TestPledgeFulfillmentPercentage(t *testing.T) {
	p := &Pledge{}
	assert.True(t, p.FulfillmentPercentage().IsZero())

	p.TotalExpected = dec("100.00")
	p.TotalReceived = dec("50.00")
	assert.Equal(t, "50.00", p.FulfillmentPercentage().StringFixed(2))
}

func TestCalculateNextExpectedDate(t *testing.T) {
	t.Run("monthly from start", func(t *testing.T) {
		p := &Pledge{Status: PledgeActive, Cadence: PledgeMonthly, StartDate: Date(2024, time.January, 31)}
		next := p.CalculateNextExpectedDate()
		require.NotNil(t, next)
		assert.Equal(t, Date(2024, time.February, 29), *next)
	})

	t.Run("uses last fulfilled date", func(t *testing.T) {
		last := Date(2024, time.March, 10)
		p := &Pledge{Status: PledgeActive, Cadence: PledgeQuarterly, StartDate: Date(2024, time.January, 1), LastFulfilledDate: &last}
		assert.Equal(t, Date(2024, time.June, 10), *p.CalculateNextExpectedDate())
	})

	t.Run("cadence offsets", func(t *testing.T) {
		start := Date(2024, time.January, 15)
		want := map[PledgeCadence]time.Time{
			PledgeMonthly:    Date(2024, time.February, 15),
			PledgeQuarterly:  Date(2024, time.April, 15),
			PledgeSemiAnnual: Date(2024, time.July, 15),
			PledgeAnnual:     Date(2025, time.January, 15),
		}
		for cadence, w := range want {
			p := &Pledge{Status: PledgeActive, Cadence: cadence, StartDate: start}
			assert.Equal(t, w, *p.CalculateNextExpectedDate(), string(cadence))
		}
	})

	t.Run("nil when not active", func(t *testing.T) {
		for _, s := range []PledgeStatus{PledgePaused, PledgeCancelled, PledgeCompleted} {
			p := &Pledge{Status: s, Cadence: PledgeMonthly, StartDate: Date(2024, time.January, 1)}
			assert.Nil(t, p.CalculateNextExpectedDate(), string(s))
		}
	})
}

func TestCheckLateStatus(t *testing.T) {
	today := Date(2024, time.June, 20)
	tests := []struct {
		name     string
		overdue  int
		wantLate bool
		wantDays int
	}{
		{"beyond grace", 15, true, 15},
		{"within grace", 5, false, 0},
		{"grace boundary", 10, false, 0},
		{"one past boundary", 11, true, 11},
		{"not yet due", -15, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := today.AddDate(0, 0, -tt.overdue)
			p := &Pledge{Status: PledgeActive, NextExpectedDate: &next}
			p.CheckLateStatus(today, DefaultGraceDays)
			assert.Equal(t, tt.wantLate, p.IsLate)
			assert.Equal(t, tt.wantDays, p.DaysLate)
		})
	}

	t.Run("inactive clears", func(t *testing.T) {
		next := today.AddDate(0, 0, -30)
		p := &Pledge{Status: PledgePaused, NextExpectedDate: &next, IsLate: true, DaysLate: 30}
		p.CheckLateStatus(today, DefaultGraceDays)
		assert.False(t, p.IsLate)
		assert.Zero(t, p.DaysLate)
	})

	t.Run("no expected date clears", func(t *testing.T) {
		p := &Pledge{Status: PledgeActive, IsLate: true, DaysLate: 4}
		p.CheckLateStatus(today, DefaultGraceDays)
		assert.False(t, p.IsLate)
		assert.Zero(t, p.DaysLate)
	})
}

func TestRecordFulfillment(t *testing.T) {
	p := newTestPledge(t, "100.00", PledgeMonthly, Date(2024, time.January, 15))
	p.IsLate, p.DaysLate = true, 12

	paid := Date(2024, time.February, 20)
	p.RecordFulfillment(paid, dec("100.00"))

	assert.Equal(t, "100.00", p.TotalReceived.StringFixed(2))
	require.NotNil(t, p.LastFulfilledDate)
	assert.Equal(t, paid, *p.LastFulfilledDate)
	assert.Equal(t, Date(2024, time.March, 20), *p.NextExpectedDate)
	assert.False(t, p.IsLate)
	assert.Zero(t, p.DaysLate)
}

// A backdated payment can leave the new expected date already overdue; the
// late flags are still cleared and only the next sweep raises them again.
func TestRecordFulfillmentBackdatedStaysOnTimeUntilSweep(t *testing.T) {
	p := newTestPledge(t, "100.00", PledgeMonthly, Date(2024, time.January, 1))
	today := Date(2024, time.June, 1)

	p.RecordFulfillment(Date(2024, time.February, 1), dec("100.00"))
	assert.False(t, p.IsLate)
	assert.Equal(t, Date(2024, time.March, 1), *p.NextExpectedDate)

	p.CheckLateStatus(today, DefaultGraceDays)
	assert.True(t, p.IsLate)
	assert.Equal(t, 92, p.DaysLate)
}

func TestRecordFulfillmentOnPausedPledge(t *testing.T) {
	p := newTestPledge(t, "25.00", PledgeMonthly, Date(2024, time.January, 1))
	require.NoError(t, p.Pause())

	p.RecordFulfillment(Date(2024, time.February, 3), dec("25.00"))

	assert.Equal(t, "25.00", p.TotalReceived.StringFixed(2))
	assert.NotNil(t, p.LastFulfilledDate)
	assert.Nil(t, p.NextExpectedDate)
}

func TestPledgeTransitions(t *testing.T) {
	today := Date(2024, time.May, 5)

	t.Run("pause then resume", func(t *testing.T) {
		p := newTestPledge(t, "100.00", PledgeMonthly, Date(2024, time.January, 10))
		p.IsLate, p.DaysLate = true, 10

		require.NoError(t, p.Pause())
		assert.Equal(t, PledgePaused, p.Status)
		assert.False(t, p.IsLate)
		assert.Zero(t, p.DaysLate)
		assert.Nil(t, p.NextExpectedDate)

		require.NoError(t, p.Resume())
		assert.Equal(t, PledgeActive, p.Status)
		require.NotNil(t, p.NextExpectedDate)
		assert.Equal(t, Date(2024, time.February, 10), *p.NextExpectedDate)
	})

	t.Run("cancel from paused", func(t *testing.T) {
		p := newTestPledge(t, "100.00", PledgeMonthly, Date(2024, time.January, 10))
		require.NoError(t, p.Pause())
		require.NoError(t, p.Cancel(today))
		assert.Equal(t, PledgeCancelled, p.Status)
		require.NotNil(t, p.EndDate)
		assert.Equal(t, today, *p.EndDate)
	})

	t.Run("cancel clears lateness", func(t *testing.T) {
		p := newTestPledge(t, "100.00", PledgeMonthly, Date(2024, time.January, 10))
		p.IsLate, p.DaysLate = true, 40
		require.NoError(t, p.Apply(ActionCancel, today))
		assert.False(t, p.IsLate)
		assert.Zero(t, p.DaysLate)
	})

	t.Run("invalid sources rejected", func(t *testing.T) {
		tests := []struct {
			from   PledgeStatus
			action PledgeAction
		}{
			{PledgePaused, ActionPause},
			{PledgeCancelled, ActionPause},
			{PledgeActive, ActionResume},
			{PledgeCompleted, ActionResume},
			{PledgeCancelled, ActionCancel},
			{PledgeCompleted, ActionCancel},
		}
		for _, tt := range tests {
			p := &Pledge{Status: tt.from, Cadence: PledgeMonthly, StartDate: Date(2024, time.January, 1)}
			err := p.Apply(tt.action, today)
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s from %s", tt.action, tt.from)
			assert.Equal(t, tt.from, p.Status)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		p := &Pledge{Status: PledgeActive}
		assert.ErrorIs(t, p.Apply(PledgeAction("complete"), today), ErrValidation)
	})
}
