package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{name: "just recorded", elapsed: 0, want: 14},
		{name: "under a day", elapsed: 23 * time.Hour, want: 14},
		{name: "one day", elapsed: day, want: 13},
		{name: "five days", elapsed: 5 * day, want: 9},
		{name: "five and a half days", elapsed: 5*day + 12*time.Hour, want: 9},
		{name: "thirteen days", elapsed: 13 * day, want: 1},
		{name: "fourteen days", elapsed: 14 * day, want: 0},
		{name: "twenty days", elapsed: 20 * day, want: 0},
		{name: "future timestamp", elapsed: -3 * day, want: 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysRemaining(now.Add(-tt.elapsed), now))
		})
	}
}

func TestDaysRemaining_ZeroTimestamp(t *testing.T) {
	assert.Equal(t, 0, DaysRemaining(time.Time{}, time.Now()))
}

func TestDaysRemaining_NeverNegative(t *testing.T) {
	now := time.Now()
	for d := 0; d < 60; d++ {
		got := DaysRemaining(now.Add(-time.Duration(d)*24*time.Hour), now)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, CaseWindowDays)
	}
}

func TestMapURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=12.9,77.6", MapURL(12.9, 77.6))
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=40.7,-74", MapURL(40.7, -74.0))
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=0,0", MapURL(0, 0))
}
