package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		d, err := ParseDate("2025-04-25")
		require.NoError(t, err)
		assert.Equal(t, Date{Year: 2025, Month: time.April, Day: 25}, d)
		assert.Equal(t, "2025-04-25", d.String())

		_, err = ParseDate("25/04/2025")
		assert.Error(t, err)
	})

	t.Run("Normalize", func(t *testing.T) {
		assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 2}, NewDate(2025, time.February, 30))
		assert.Equal(t, Date{Year: 2026, Month: time.January, Day: 1}, NewDate(2025, time.December, 31).AddDays(1))
	})

	t.Run("Compare", func(t *testing.T) {
		a := NewDate(2025, 1, 1)
		b := NewDate(2025, 1, 2)
		assert.True(t, a.Before(b))
		assert.True(t, b.After(a))
		assert.Equal(t, 0, a.Compare(a))
		assert.Equal(t, 1, a.DaysUntil(b))
		assert.Equal(t, -1, b.DaysUntil(a))
	})

	t.Run("Weekday", func(t *testing.T) {
		assert.Equal(t, time.Saturday, NewDate(2025, 6, 7).Weekday())
	})

	t.Run("InLocation", func(t *testing.T) {
		loc, err := time.LoadLocation("Europe/Lisbon")
		require.NoError(t, err)
		d := NewDate(2025, 7, 1)
		assert.Equal(t, d, DateOf(d.In(loc)))
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := json.Marshal(struct {
			D Date `json:"d"`
		}{D: NewDate(2025, 12, 8)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"d":"2025-12-08"}`, string(data))
	})
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"16:30", NewTimeOfDay(16, 30), false},
		{"09:05", NewTimeOfDay(9, 5), false},
		{"16:30:00", NewTimeOfDay(16, 30), false},
		{"16:30:59.123456", NewTimeOfDay(16, 30), false},
		{"24:00", MinutesPerDay, false},
		{"24:30", 0, true},
		{"9:00", 0, true},
		{"16:60", 0, true},
		{"noon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_Format(t *testing.T) {
	tod := NewTimeOfDay(7, 5)
	assert.Equal(t, "07:05", tod.String())
	assert.Equal(t, "07:05:00", tod.SQL())
	assert.Equal(t, 7, tod.Hour())
	assert.Equal(t, 5, tod.Minute())
	assert.Equal(t, NewTimeOfDay(7, 50), tod.Add(45))
}

func TestInterval(t *testing.T) {
	iv, err := ParseInterval("16:30-19:30")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(16, 30), iv.Start)
	assert.Equal(t, 180, iv.Minutes())
	assert.Equal(t, "16:30-19:30", iv.String())

	assert.True(t, iv.Contains(NewInterval(NewTimeOfDay(19, 0), 30)))
	assert.False(t, iv.Contains(NewInterval(NewTimeOfDay(19, 0), 31)))

	_, err = ParseInterval("19:30-16:30")
	assert.Error(t, err)
	_, err = ParseInterval("16:30")
	assert.Error(t, err)

	var decoded Interval
	require.NoError(t, decoded.UnmarshalText([]byte("11:30-14:00")))
	assert.Equal(t, NewInterval(NewTimeOfDay(11, 30), 150), decoded)
}

func TestPeriod(t *testing.T) {
	p, err := ParsePeriod(" Morning ")
	require.NoError(t, err)
	assert.Equal(t, PeriodMorning, p)

	_, err = ParsePeriod("evening")
	assert.Error(t, err)

	assert.Equal(t, PeriodMorning, PeriodOf(NewTimeOfDay(11, 30)))
	assert.Equal(t, PeriodAfternoon, PeriodOf(NewTimeOfDay(16, 30)))
}

func TestBooking_Interval(t *testing.T) {
	b := Booking{Start: NewTimeOfDay(16, 30), End: NewTimeOfDay(17, 15)}
	assert.Equal(t, Interval{Start: b.Start, End: b.End}, b.Interval())
	assert.Equal(t, 45, b.DurationMinutes())
}
