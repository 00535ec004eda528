package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPaymentDate(t *testing.T) {
	tests := []struct {
		name     string
		day      int
		now      time.Time
		expected time.Time
	}{
		{
			name:     "later this month",
			day:      20,
			now:      time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
			expected: time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "today rolls to next month",
			day:      10,
			now:      time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
			expected: time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "already passed this month",
			day:      5,
			now:      time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC),
			expected: time.Date(2026, time.April, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "day 31 in a 30-day month skips to next 31-day month",
			day:      31,
			now:      time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC),
			expected: time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "day 31 after the 31st skips june",
			day:      31,
			now:      time.Date(2026, time.May, 31, 8, 0, 0, 0, time.UTC),
			expected: time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "day 30 skips february",
			day:      30,
			now:      time.Date(2026, time.January, 30, 1, 0, 0, 0, time.UTC),
			expected: time.Date(2026, time.March, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "december rolls into next year",
			day:      1,
			now:      time.Date(2026, time.December, 15, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := NextPaymentDate(tt.day, tt.now)
			require.NoError(t, err)
			assert.True(t, next.Equal(tt.expected), "got %s, want %s", next, tt.expected)
			assert.True(t, next.After(tt.now))
			assert.Equal(t, tt.day, next.Day())
		})
	}
}

func TestNextPaymentDateRejectsInvalidDay(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, day := range []int{0, -1, 32} {
		_, err := NextPaymentDate(day, now)
		assert.Error(t, err, "day %d", day)
	}
}

func TestRecurringPaymentAdvance(t *testing.T) {
	p := RecurringPayment{PaymentDay: 15}
	now := time.Date(2026, time.June, 20, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.Advance(now))
	assert.True(t, p.NextPaymentDate.Equal(time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)))
}
