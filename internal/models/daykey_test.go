package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKeyFromTimeUTCNormalized(t *testing.T) {
	// 23:30 on Jan 1 in UTC-5 is already Jan 2 in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	at := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, DayKey("2024-01-02"), DayKeyFromTime(at))
}

func TestParseDayKey(t *testing.T) {
	key, err := ParseDayKey("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, DayKey("2024-02-29"), key)

	for _, bad := range []string{"", "2024-13-01", "2024-02-30", "01/02/2024", "2024-1-2"} {
		_, err := ParseDayKey(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestDayKeyPrev(t *testing.T) {
	tests := []struct {
		day  DayKey
		prev DayKey
	}{
		{"2024-01-02", "2024-01-01"},
		{"2024-01-01", "2023-12-31"},
		{"2024-03-01", "2024-02-29"}, // leap year
		{"2023-03-01", "2023-02-28"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.prev, tt.day.Prev())
	}
}

func TestDayKeyIsZero(t *testing.T) {
	assert.True(t, DayKey("").IsZero())
	assert.False(t, DayKey("2024-01-01").IsZero())
}
