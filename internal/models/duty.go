package models

import (
	"fmt"
	"strings"
	"time"
)

// Period splits a visiting day into the two duty shifts.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodMorning, PeriodAfternoon:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q: expected morning or afternoon", s)
	}
}

// PeriodOf returns the duty period a window start falls into.
func PeriodOf(t TimeOfDay) Period {
	if t < NewTimeOfDay(13, 0) {
		return PeriodMorning
	}
	return PeriodAfternoon
}

// DutyContact is the staff member on duty for a (date, period). Upserts are last-writer-wins.
type DutyContact struct {
	Date      Date      `json:"date"`
	Period    Period    `json:"period"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updated_at"`
}
