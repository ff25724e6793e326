package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	err := NewNotFoundError("Sale %s not found", "abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrNotFound))
	assert.Equal(t, "Sale abc not found", err.Error())
}

func TestErrorClassification(t *testing.T) {
	assert.Equal(t, CodeInsufficientStock, ErrorCode(ErrInsufficientStock))
	assert.Equal(t, CodeUnknown, ErrorCode(errors.New("boom")))

	assert.True(t, IsConcurrencyConflict(fmt.Errorf("save: %w", ErrConcurrencyConflict)))
	assert.False(t, IsConcurrencyConflict(ErrNotFound))

	assert.True(t, IsBusinessError(ErrNotFound))
	assert.True(t, IsBusinessError(ErrInsufficientStock))
	assert.False(t, IsBusinessError(ErrConcurrencyConflict))
	assert.False(t, IsBusinessError(ErrUnknown))
	assert.False(t, IsBusinessError(errors.New("driver: bad connection")))
}

func TestTimeRanges(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	day := time.Date(2026, 5, 4, 15, 30, 0, 0, loc)

	r := DayRange(day, loc)
	assert.True(t, time.Date(2026, 5, 4, 0, 0, 0, 0, loc).Equal(r.Start))
	assert.True(t, time.Date(2026, 5, 4, 23, 59, 59, int(999*time.Millisecond), loc).Equal(r.End))
	assert.True(t, r.Contains(r.Start))
	assert.True(t, r.Contains(r.End))
	assert.False(t, r.Contains(r.End.Add(time.Millisecond)))

	_, err := NewTimeRange(r.End, r.Start)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = NewTimeRange(time.Time{}, r.End)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDayRange_DaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name  string
		day   time.Time
		hours time.Duration
	}{
		{"fall back has 25 hours", time.Date(2026, 11, 1, 12, 0, 0, 0, loc), 25 * time.Hour},
		{"spring forward has 23 hours", time.Date(2026, 3, 8, 12, 0, 0, 0, loc), 23 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DayRange(tt.day, loc)
			next := time.Date(tt.day.Year(), tt.day.Month(), tt.day.Day()+1, 0, 0, 0, 0, loc)

			assert.Equal(t, tt.hours-time.Millisecond, r.End.Sub(r.Start))
			assert.Equal(t, 23, r.End.Hour())
			assert.Equal(t, 59, r.End.Minute())
			assert.Equal(t, tt.day.Day(), r.End.Day())
			assert.True(t, r.Contains(time.Date(tt.day.Year(), tt.day.Month(), tt.day.Day(), 23, 30, 0, 0, loc)))
			assert.False(t, r.Contains(next))
			assert.False(t, r.Contains(next.Add(30*time.Minute)))
		})
	}
}
