package models

import "time"

// Booking is a committed visit on a single date.
type Booking struct {
	ID          int64     `json:"id"`
	Date        Date      `json:"date"`
	Start       TimeOfDay `json:"start"`
	End         TimeOfDay `json:"end"`
	VisitorName string    `json:"visitor_name"`
	Phone       string    `json:"phone,omitempty"`
	PartySize   int       `json:"party_size"`
	CreatedAt   time.Time `json:"created_at"`
}

func (b Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

func (b Booking) DurationMinutes() int {
	return int(b.End - b.Start)
}

// NewBooking is an admitted request ready to be persisted.
type NewBooking struct {
	Date        Date
	Interval    Interval
	VisitorName string
	Phone       string
	PartySize   int
	// SlotStep is the grid size the store uses to split the interval into capacity cells.
	SlotStep int
	// Capacity is the number of units available per cell.
	Capacity int
}
