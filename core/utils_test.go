package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Hello", CleanString("  Hello \t"))
	assert.Equal(t, "hello@test.cd", CleanString(" Hello@Test.CD ", true))
}

func TestBeginningOfDay(t *testing.T) {
	tz := time.FixedZone("UTC+3", 3*3600)
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "already midnight UTC",
			in:   time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
			want: time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "mid day",
			in:   time.Date(2021, 3, 15, 13, 45, 59, 123, time.UTC),
			want: time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "normalized to UTC first",
			in:   time.Date(2021, 3, 15, 1, 30, 0, 0, tz), // 2021-03-14T22:30Z
			want: time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BeginningOfDay(tt.in))
		})
	}
}

func TestNextDay(t *testing.T) {
	in := time.Date(2021, 12, 31, 22, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), NextDay(in))
}

func TestMonthInterval(t *testing.T) {
	from, to := MonthInterval(2021, time.December)
	assert.Equal(t, time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestParseDate(t *testing.T) {
	day, err := ParseDate("2021-03-15")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), day)

	day, err = ParseDate("2021-03-15T13:45:00Z")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseDate("15/03/2021")
	assert.Error(t, err)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name        string
		part, total int
		want        float64
	}{
		{name: "zero total", part: 0, total: 0, want: 0},
		{name: "all present", part: 10, total: 10, want: 100},
		{name: "three quarters", part: 15, total: 20, want: 75},
		{name: "rounded to 2dp", part: 1, total: 3, want: 33.33},
		{name: "rounded up", part: 2, total: 3, want: 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.part, tt.total))
		})
	}
}
