package schedule

import (
	"fmt"
	"sort"
	"time"

	"visits/internal/models"
)

// WindowSet is an ordered list of allowed visiting intervals. Empty means no visits.
type WindowSet []models.Interval

// Fits reports whether iv lies entirely inside one member of ws.
func (ws WindowSet) Fits(iv models.Interval) bool {
	for _, w := range ws {
		if w.Contains(iv) {
			return true
		}
	}
	return false
}

func (ws WindowSet) clone() WindowSet {
	out := make(WindowSet, len(ws))
	copy(out, ws)
	return out
}

// DayClass is the category of a date for window selection.
type DayClass int

const (
	DayOrdinary DayClass = iota
	DayWeekend
	DayHoliday
)

func (c DayClass) String() string {
	switch c {
	case DayWeekend:
		return "weekend"
	case DayHoliday:
		return "holiday"
	default:
		return "ordinary"
	}
}

func (c DayClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ClassifyDay returns WEEKEND for Saturday and Sunday, HOLIDAY for other dates in holidays,
// ORDINARY otherwise.
func ClassifyDay(d models.Date, holidays HolidaySet) DayClass {
	switch wd := d.Weekday(); {
	case wd == time.Saturday || wd == time.Sunday:
		return DayWeekend
	case holidays.Contains(d):
		return DayHoliday
	default:
		return DayOrdinary
	}
}

// WindowPolicy holds the window sets per day class. Either set may be empty.
type WindowPolicy struct {
	Weekday          WindowSet `yaml:"weekday" json:"weekday"`
	WeekendOrHoliday WindowSet `yaml:"weekend_or_holiday" json:"weekend_or_holiday"`
}

// DefaultWindowPolicy returns the stock visiting hours.
func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{
		Weekday: WindowSet{
			{Start: models.NewTimeOfDay(16, 30), End: models.NewTimeOfDay(19, 30)},
		},
		WeekendOrHoliday: WindowSet{
			{Start: models.NewTimeOfDay(11, 30), End: models.NewTimeOfDay(14, 0)},
			{Start: models.NewTimeOfDay(16, 30), End: models.NewTimeOfDay(19, 30)},
		},
	}
}

// AllowedWindows returns a copy of the window set configured for the class of d.
// The result is never nil.
func (p WindowPolicy) AllowedWindows(d models.Date, holidays HolidaySet) WindowSet {
	if ClassifyDay(d, holidays) == DayOrdinary {
		return p.Weekday.clone()
	}
	return p.WeekendOrHoliday.clone()
}

// Validate checks that every set is well formed, sorted, non-overlapping and that
// window starts lie on the step grid.
func (p WindowPolicy) Validate(step int) error {
	if step <= 0 {
		return fmt.Errorf("slot step must be positive, got %d", step)
	}
	if err := validateSet(p.Weekday, step); err != nil {
		return fmt.Errorf("weekday windows: %w", err)
	}
	if err := validateSet(p.WeekendOrHoliday, step); err != nil {
		return fmt.Errorf("weekend_or_holiday windows: %w", err)
	}
	return nil
}

func validateSet(ws WindowSet, step int) error {
	for i, w := range ws {
		if !w.Valid() {
			return fmt.Errorf("window %s is empty or out of range", w)
		}
		if int(w.Start)%step != 0 {
			return fmt.Errorf("window %s does not start on the %d-minute grid", w, step)
		}
		if i > 0 && w.Start < ws[i-1].End {
			return fmt.Errorf("window %s overlaps or precedes %s", w, ws[i-1])
		}
	}
	return nil
}

// Normalize sorts each set by start.
func (p *WindowPolicy) Normalize() {
	for _, ws := range []WindowSet{p.Weekday, p.WeekendOrHoliday} {
		sort.SliceStable(ws, func(i, j int) bool { return ws[i].Start < ws[j].Start })
	}
}
