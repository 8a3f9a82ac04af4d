package schedule

import "visits/internal/models"

// Overlaps reports whether half-open intervals a and b intersect.
func Overlaps(a, b models.Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// RemainingCapacity returns total minus the party sizes of bookings overlapping
// candidate, floored at zero. A booking ID seen twice is counted once.
func RemainingCapacity(existing []models.Booking, candidate models.Interval, total int) int {
	used := 0
	seen := make(map[int64]struct{}, len(existing))
	for _, b := range existing {
		if b.ID != 0 {
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
		}
		if Overlaps(b.Interval(), candidate) {
			used += b.PartySize
		}
	}
	if used >= total {
		return 0
	}
	return total - used
}

// SlotStatus explains whether a slot can take a party.
type SlotStatus int

const (
	StatusOpen SlotStatus = iota
	StatusInsufficient
	StatusFull
)

func (s SlotStatus) String() string {
	switch s {
	case StatusFull:
		return "full"
	case StatusInsufficient:
		return "insufficient"
	default:
		return "open"
	}
}

func (s SlotStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classify maps remaining capacity against the party size. A party that exactly
// fills the remaining capacity is OPEN.
func Classify(remaining, party int) SlotStatus {
	switch {
	case remaining <= 0:
		return StatusFull
	case remaining < party:
		return StatusInsufficient
	default:
		return StatusOpen
	}
}

// FindConflict returns the first booking overlapping candidate, or nil.
func FindConflict(existing []models.Booking, candidate models.Interval) *models.Booking {
	for i := range existing {
		if Overlaps(existing[i].Interval(), candidate) {
			return &existing[i]
		}
	}
	return nil
}

// Slot is one feasible start with its capacity verdict.
type Slot struct {
	Start     models.TimeOfDay `json:"start"`
	End       models.TimeOfDay `json:"end"`
	Remaining int              `json:"remaining"`
	Status    SlotStatus       `json:"status"`
}

func (s Slot) Interval() models.Interval {
	return models.Interval{Start: s.Start, End: s.End}
}

// Availability lists every feasible start of windows for a visit of duration
// minutes and classifies it for party.
func Availability(existing []models.Booking, windows WindowSet, duration, party, step, total int) []Slot {
	starts := FeasibleStarts(windows, duration, step)
	slots := make([]Slot, 0, len(starts))
	for _, t := range starts {
		iv := models.NewInterval(t, duration)
		remaining := RemainingCapacity(existing, iv, total)
		slots = append(slots, Slot{
			Start:     iv.Start,
			End:       iv.End,
			Remaining: remaining,
			Status:    Classify(remaining, party),
		})
	}
	return slots
}

// OpenSlots filters slots down to the ones a party can book.
func OpenSlots(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Status == StatusOpen {
			out = append(out, s)
		}
	}
	return out
}
