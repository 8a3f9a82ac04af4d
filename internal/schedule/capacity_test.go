package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visits/internal/models"
)

func booking(t *testing.T, id int64, interval string, party int) models.Booking {
	t.Helper()
	i := iv(t, interval)
	return models.Booking{ID: id, Start: i.Start, End: i.End, VisitorName: "v", PartySize: party}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"16:30-17:00", "16:30-17:00", true},
		{"16:30-17:00", "16:45-17:15", true},
		{"16:30-18:00", "17:00-17:30", true},
		{"16:30-17:00", "17:00-17:30", false},
		{"16:30-17:00", "18:00-18:30", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			a, b := iv(t, tt.a), iv(t, tt.b)
			assert.Equal(t, tt.want, Overlaps(a, b))
			assert.Equal(t, Overlaps(a, b), Overlaps(b, a))
		})
	}
}

func TestOverlaps_Symmetric(t *testing.T) {
	var all []models.Interval
	for s := 0; s < 8; s++ {
		for e := s + 1; e <= 8; e++ {
			all = append(all, models.Interval{Start: models.TimeOfDay(s * 15), End: models.TimeOfDay(e * 15)})
		}
	}
	for _, a := range all {
		for _, b := range all {
			require.Equal(t, Overlaps(a, b), Overlaps(b, a), "%s %s", a, b)
		}
	}
}

func TestRemainingCapacity(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, 3, RemainingCapacity(nil, iv(t, "16:30-17:00"), 3))
	})

	t.Run("NonOverlapping", func(t *testing.T) {
		existing := []models.Booking{
			booking(t, 1, "16:30-17:00", 2),
			booking(t, 2, "18:00-19:00", 1),
		}
		assert.Equal(t, 4, RemainingCapacity(existing, iv(t, "17:00-18:00"), 4))
	})

	t.Run("Scenario", func(t *testing.T) {
		existing := []models.Booking{booking(t, 1, "16:30-17:00", 1)}
		remaining := RemainingCapacity(existing, iv(t, "16:30-17:00"), 2)
		assert.Equal(t, 1, remaining)
		assert.Equal(t, StatusOpen, Classify(remaining, 1))
		assert.Equal(t, StatusInsufficient, Classify(remaining, 2))
	})

	t.Run("DuplicateCountedOnce", func(t *testing.T) {
		b := booking(t, 7, "16:30-17:00", 1)
		assert.Equal(t, 1, RemainingCapacity([]models.Booking{b, b}, iv(t, "16:30-17:00"), 2))
	})

	t.Run("FlooredAtZero", func(t *testing.T) {
		existing := []models.Booking{booking(t, 1, "16:30-17:30", 3)}
		assert.Equal(t, 0, RemainingCapacity(existing, iv(t, "17:00-17:30"), 2))
	})
}

func TestClassify_Partition(t *testing.T) {
	for remaining := 0; remaining <= 10; remaining++ {
		for party := 1; party <= 10; party++ {
			got := Classify(remaining, party)
			switch {
			case remaining == 0:
				assert.Equal(t, StatusFull, got)
			case remaining < party:
				assert.Equal(t, StatusInsufficient, got)
			default:
				assert.Equal(t, StatusOpen, got)
			}
		}
	}
	assert.Equal(t, StatusOpen, Classify(2, 2))
}

func TestFindConflict(t *testing.T) {
	existing := []models.Booking{
		booking(t, 1, "16:30-17:00", 1),
		booking(t, 2, "17:00-18:00", 1),
		booking(t, 3, "17:30-18:00", 1),
	}
	got := FindConflict(existing, iv(t, "17:30-18:00"))
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)

	assert.Nil(t, FindConflict(existing, iv(t, "18:00-18:30")))
	assert.Nil(t, FindConflict(nil, iv(t, "18:00-18:30")))
}

func TestAvailability(t *testing.T) {
	existing := []models.Booking{
		booking(t, 1, "16:30-17:00", 1),
		booking(t, 2, "17:00-18:00", 2),
	}
	slots := Availability(existing, WindowSet{iv(t, "16:30-19:30")}, 30, 1, 30, 2)
	require.Len(t, slots, 6)

	assert.Equal(t, StatusOpen, slots[0].Status)
	assert.Equal(t, 1, slots[0].Remaining)
	assert.Equal(t, StatusFull, slots[1].Status)
	assert.Equal(t, StatusFull, slots[2].Status)
	assert.Equal(t, StatusOpen, slots[3].Status)
	assert.Equal(t, 2, slots[3].Remaining)
	assert.Equal(t, models.NewTimeOfDay(19, 30), slots[5].End)

	open := OpenSlots(slots)
	assert.Len(t, open, 4)
}
