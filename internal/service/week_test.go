package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekWindowEveryWeekday(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 17, 23, 59, 59, 999_000_000, time.UTC)

	for i := 0; i < 7; i++ {
		now := monday.AddDate(0, 0, i).Add(13*time.Hour + 27*time.Minute)
		t.Run(now.Weekday().String(), func(t *testing.T) {
			from, to := WeekWindow(now)
			assert.True(t, from.Equal(monday), "from %s", from)
			assert.True(t, to.Equal(sunday), "to %s", to)
		})
	}
}

func TestWeekWindowBoundaries(t *testing.T) {
	from, to := WeekWindow(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 17, 23, 59, 59, 999_000_000, time.UTC), to)

	from, _ = WeekWindow(time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), from)
}

func TestWeekWindowAcrossMonth(t *testing.T) {
	from, to := WeekWindow(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 3, 23, 59, 59, 999_000_000, time.UTC), to)
}

func TestPreviousWeekWindow(t *testing.T) {
	from, to := PreviousWeekWindow(time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, time.UTC), to)
}

func TestWeekWindowKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	from, _ := WeekWindow(time.Date(2024, 3, 11, 2, 0, 0, 0, loc))
	assert.Equal(t, loc, from.Location())
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, loc), from)
}
