package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"visits/internal/models"
)

func times(t *testing.T, ss ...string) []models.TimeOfDay {
	t.Helper()
	out := make([]models.TimeOfDay, 0, len(ss))
	for _, s := range ss {
		tod, err := models.ParseTimeOfDay(s)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, tod)
	}
	return out
}

func TestCandidateStarts(t *testing.T) {
	got := CandidateStarts(iv(t, "16:30-19:30"), 30)
	assert.Equal(t, times(t, "16:30", "17:00", "17:30", "18:00", "18:30", "19:00"), got)

	assert.Equal(t, times(t, "11:30", "12:00", "12:30", "13:00", "13:30"), CandidateStarts(iv(t, "11:30-14:00"), 30))
	assert.Equal(t, times(t, "10:00"), CandidateStarts(iv(t, "10:00-10:45"), 30))
	assert.Empty(t, CandidateStarts(iv(t, "10:00-10:20"), 30))
	assert.Nil(t, CandidateStarts(iv(t, "16:30-19:30"), 0))
	assert.Nil(t, CandidateStarts(iv(t, "16:30-19:30"), -5))

	// Restartable: a second call yields the same sequence.
	assert.Equal(t, CandidateStarts(iv(t, "16:30-19:30"), 30), got)
}

func TestFeasibleStarts(t *testing.T) {
	ws := WindowSet{iv(t, "11:30-14:00"), iv(t, "16:30-19:30")}

	assert.Equal(t,
		times(t, "11:30", "12:00", "12:30", "13:00", "16:30", "17:00", "17:30", "18:00", "18:30"),
		FeasibleStarts(ws, 60, 30))

	assert.Equal(t,
		times(t, "11:30", "12:00", "12:30", "13:00", "13:30", "16:30", "17:00", "17:30", "18:00", "18:30", "19:00"),
		FeasibleStarts(ws, 15, 30))

	assert.Equal(t, times(t, "11:30", "12:00", "12:30", "13:00", "16:30", "17:00", "17:30", "18:00", "18:30"),
		FeasibleStarts(ws, 45, 30))

	assert.Empty(t, FeasibleStarts(ws, 0, 30))
	assert.Empty(t, FeasibleStarts(WindowSet{}, 30, 30))
	assert.Empty(t, FeasibleStarts(WindowSet{iv(t, "16:30-17:00")}, 60, 30))
}

func TestOnGrid(t *testing.T) {
	ws := DefaultWindowPolicy().WeekendOrHoliday
	assert.True(t, OnGrid(ws, models.NewTimeOfDay(11, 30), 30))
	assert.True(t, OnGrid(ws, models.NewTimeOfDay(17, 0), 30))
	assert.False(t, OnGrid(ws, models.NewTimeOfDay(17, 15), 30))
	assert.False(t, OnGrid(ws, models.NewTimeOfDay(15, 0), 30))
	assert.False(t, OnGrid(ws, models.NewTimeOfDay(19, 30), 30))
}

func TestCells(t *testing.T) {
	assert.Equal(t, times(t, "16:30"), Cells(iv(t, "16:30-16:45"), 30))
	assert.Equal(t, times(t, "16:30", "17:00"), Cells(iv(t, "16:30-17:15"), 30))
	assert.Equal(t, times(t, "16:30", "17:00"), Cells(iv(t, "16:30-17:30"), 30))
	assert.Nil(t, Cells(iv(t, "16:30-17:30"), 0))
}
