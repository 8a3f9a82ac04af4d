package models

const (
	// DefaultSlotStep шаг сетки слотов в минутах
	DefaultSlotStep = 30

	// DefaultDuration длительность визита по умолчанию в минутах
	DefaultDuration = 30

	// DefaultCapacity число одновременных посетителей по умолчанию
	DefaultCapacity = 1

	// DefaultTimezone часовой пояс, в котором считаются даты и "сегодня"
	DefaultTimezone = "Europe/Lisbon"

	// MinHolidayYear первый год григорианского календаря, для которого считается Пасха
	MinHolidayYear = 1583

	// MaxNameLength ограничение длины имени посетителя
	MaxNameLength = 200

	// MaxPhoneLength ограничение длины телефона
	MaxPhoneLength = 40
)

// DefaultDurations are the visit lengths offered to visitors, in minutes.
var DefaultDurations = []int{15, 20, 30, 45, 60}
