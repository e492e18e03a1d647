package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"zero days returns start", date(2024, time.January, 15), 0, date(2024, time.January, 15)},
		{"midweek stays in week", date(2024, time.January, 15), 2, date(2024, time.January, 17)},           // Mon -> Wed
		{"thursday plus two skips weekend", date(2024, time.January, 18), 2, date(2024, time.January, 22)}, // Thu -> Mon
		{"friday plus one is monday", date(2024, time.January, 19), 1, date(2024, time.January, 22)},
		{"friday plus five is next friday", date(2024, time.January, 19), 5, date(2024, time.January, 26)},
		{"starting saturday counts from monday", date(2024, time.January, 20), 1, date(2024, time.January, 22)},
		{"zero days on weekend stays put", date(2024, time.January, 20), 0, date(2024, time.January, 20)},
		{"spans two weekends", date(2024, time.January, 18), 7, date(2024, time.January, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddBusinessDays(tt.start, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.n == 0 || IsBusinessDay(got), "result must land on a business day")
		})
	}
}

func TestNextBusinessDay(t *testing.T) {
	// 2024-01-20 is a Saturday, 2024-01-21 a Sunday
	assert.Equal(t, date(2024, time.January, 22), NextBusinessDay(date(2024, time.January, 20)))
	assert.Equal(t, date(2024, time.January, 22), NextBusinessDay(date(2024, time.January, 21)))
	assert.Equal(t, date(2024, time.January, 17), NextBusinessDay(date(2024, time.January, 17)))
	assert.Equal(t, date(2024, time.January, 19), NextBusinessDay(date(2024, time.January, 19)))
}

func TestNextBusinessDayIdempotent(t *testing.T) {
	for d := date(2024, time.January, 15); d.Before(date(2024, time.February, 15)); d = d.AddDate(0, 0, 1) {
		once := NextBusinessDay(d)
		assert.Equal(t, once, NextBusinessDay(once))
	}
}
