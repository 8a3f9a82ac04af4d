package schedule

import "visits/internal/models"

// CandidateStarts returns the grid starts t = window.Start + k*step with t+step <= window.End.
// It is duration-agnostic and returns nil when step <= 0.
func CandidateStarts(window models.Interval, step int) []models.TimeOfDay {
	if step <= 0 || !window.Valid() {
		return nil
	}
	starts := make([]models.TimeOfDay, 0, window.Minutes()/step)
	for t := window.Start; t.Add(step) <= window.End; t = t.Add(step) {
		starts = append(starts, t)
	}
	return starts
}

// FeasibleStarts returns, window by window, the grid starts where a visit of
// duration minutes still ends inside the window.
func FeasibleStarts(windows WindowSet, duration, step int) []models.TimeOfDay {
	if duration <= 0 {
		return nil
	}
	var out []models.TimeOfDay
	for _, w := range windows {
		for _, t := range CandidateStarts(w, step) {
			if t.Add(duration) <= w.End {
				out = append(out, t)
			}
		}
	}
	return out
}

// OnGrid reports whether t is one of the candidate starts of some window.
func OnGrid(windows WindowSet, t models.TimeOfDay, step int) bool {
	for _, w := range windows {
		if t >= w.Start && t < w.End && step > 0 && int(t-w.Start)%step == 0 {
			return true
		}
	}
	return false
}

// Cells returns the starts of the step-sized cells, anchored at midnight, that iv touches.
// The store claims one capacity unit per cell.
func Cells(iv models.Interval, step int) []models.TimeOfDay {
	if step <= 0 || !iv.Valid() {
		return nil
	}
	first := models.TimeOfDay(int(iv.Start) / step * step)
	var cells []models.TimeOfDay
	for c := first; c < iv.End; c = c.Add(step) {
		cells = append(cells, c)
	}
	return cells
}
