package schedule

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"visits/internal/models"
)

// ErrYearOutOfRange is returned for years before the Gregorian reform.
var ErrYearOutOfRange = errors.New("schedule: holiday year out of range")

// fixedHolidays are the national holidays that fall on the same day every year.
var fixedHolidays = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},
	{time.April, 25},
	{time.May, 1},
	{time.June, 10},
	{time.August, 15},
	{time.October, 5},
	{time.November, 1},
	{time.December, 1},
	{time.December, 8},
	{time.December, 25},
}

// HolidaySet is a set of civil dates.
type HolidaySet map[models.Date]struct{}

func (s HolidaySet) Contains(d models.Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the dates in ascending order.
func (s HolidaySet) Sorted() []models.Date {
	out := make([]models.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Easter returns Easter Sunday of the Gregorian year using the Meeus/Jones/Butcher method.
// The result is only meaningful for year >= 1583.
func Easter(year int) models.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return models.NewDate(year, time.Month(month), day)
}

// GoodFriday is two days before Easter.
func GoodFriday(year int) models.Date {
	return Easter(year).AddDays(-2)
}

// CorpusChristi is sixty days after Easter.
func CorpusChristi(year int) models.Date {
	return Easter(year).AddDays(60)
}

// Holidays returns the public holidays of year. Precondition: year >= 1583.
// A movable holiday that lands on a fixed one is counted once.
func Holidays(year int) HolidaySet {
	set := make(HolidaySet, len(fixedHolidays)+2)
	set[GoodFriday(year)] = struct{}{}
	set[CorpusChristi(year)] = struct{}{}
	for _, f := range fixedHolidays {
		set[models.NewDate(year, f.month, f.day)] = struct{}{}
	}
	return set
}

// HolidaysForYears is the union of Holidays over years.
func HolidaysForYears(years ...int) HolidaySet {
	set := make(HolidaySet)
	for _, y := range years {
		for d := range Holidays(y) {
			set[d] = struct{}{}
		}
	}
	return set
}

// HolidayCache memoizes Holidays per year. The zero value is ready to use.
type HolidayCache struct {
	mu    sync.Mutex
	years map[int]HolidaySet
}

func NewHolidayCache() *HolidayCache {
	return &HolidayCache{years: make(map[int]HolidaySet)}
}

// Year returns the cached set for year, computing it on first use.
func (c *HolidayCache) Year(year int) (HolidaySet, error) {
	if year < models.MinHolidayYear {
		return nil, fmt.Errorf("%w: %d", ErrYearOutOfRange, year)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.years == nil {
		c.years = make(map[int]HolidaySet)
	}
	if set, ok := c.years[year]; ok {
		return set, nil
	}
	set := Holidays(year)
	c.years[year] = set
	return set, nil
}

// ForYears returns a fresh union of the cached sets. Callers may modify the result.
func (c *HolidayCache) ForYears(years ...int) (HolidaySet, error) {
	out := make(HolidaySet)
	for _, y := range years {
		set, err := c.Year(y)
		if err != nil {
			return nil, err
		}
		for d := range set {
			out[d] = struct{}{}
		}
	}
	return out, nil
}

// Around returns the holidays of the date's year and its neighbours.
func (c *HolidayCache) Around(d models.Date) (HolidaySet, error) {
	return c.ForYears(d.Year-1, d.Year, d.Year+1)
}

// Len reports how many years are cached.
func (c *HolidayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.years)
}
