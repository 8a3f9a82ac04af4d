package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"visits/internal/config"
	"visits/internal/database"
	"visits/internal/domain"
	"visits/internal/events"
	"visits/internal/metrics"
	"visits/internal/models"
	"visits/internal/schedule"

	"github.com/rs/zerolog"
)

// BookingRequest is an unvalidated visit request.
type BookingRequest struct {
	Date        models.Date      `json:"date"`
	Start       models.TimeOfDay `json:"start"`
	Duration    int              `json:"duration"`
	VisitorName string           `json:"visitor_name"`
	Phone       string           `json:"phone"`
	PartySize   int              `json:"party_size"`
}

// Interval returns the requested visit interval.
func (r BookingRequest) Interval() models.Interval {
	return models.NewInterval(r.Start, r.Duration)
}

// DayAvailability is the slot listing of a single date.
type DayAvailability struct {
	Date     models.Date        `json:"date"`
	Class    schedule.DayClass  `json:"day_class"`
	Windows  schedule.WindowSet `json:"windows"`
	Duration int                `json:"duration"`
	Party    int                `json:"party_size"`
	Slots    []schedule.Slot    `json:"slots"`
}

type Option func(*BookingService)

// WithClock replaces time.Now for "today" and created/updated timestamps.
func WithClock(clock domain.Clock) Option {
	return func(s *BookingService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// BookingService validates requests against the visiting policy and admits them
// through the repository. The repository's cell constraint is what keeps
// concurrent admissions within capacity; the service only pre-checks.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	cfg      config.ScheduleConfig
	policy   schedule.WindowPolicy
	holidays *schedule.HolidayCache
	loc      *time.Location
	now      domain.Clock
	logger   zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, cfg config.ScheduleConfig, logger *zerolog.Logger, opts ...Option) (*BookingService, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository is required", ErrConfiguration)
	}
	if err := config.ValidateSchedule(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "booking_service").Logger()
	}

	s := &BookingService{
		repo:     repo,
		eventBus: eventBus,
		cfg:      cfg,
		policy:   cfg.Windows,
		holidays: schedule.NewHolidayCache(),
		loc:      loc,
		now:      time.Now,
		logger:   l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Today returns the current civil date in the configured zone.
func (s *BookingService) Today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

// DefaultDuration is the visit length used when a request omits it.
func (s *BookingService) DefaultDuration() int {
	return s.cfg.DefaultDuration
}

// Windows returns the day class and visiting windows of date.
func (s *BookingService) Windows(date models.Date) (schedule.DayClass, schedule.WindowSet, error) {
	holidays, err := s.holidays.Around(date)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return schedule.ClassifyDay(date, holidays), s.policy.AllowedWindows(date, holidays), nil
}

// Holidays lists the public holidays of year in date order.
func (s *BookingService) Holidays(_ context.Context, year int) ([]models.Date, error) {
	set, err := s.holidays.Year(year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return set.Sorted(), nil
}

// Availability lists every feasible start of date with its capacity verdict.
func (s *BookingService) Availability(ctx context.Context, date models.Date, duration, party int) (*DayAvailability, error) {
	if duration <= 0 || !s.cfg.AllowsDuration(duration) {
		return nil, fmt.Errorf("%w: duration %d is not offered", ErrValidation, duration)
	}
	if party < 1 {
		return nil, fmt.Errorf("%w: party size must be at least 1", ErrValidation)
	}

	class, windows, err := s.Windows(date)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListBookings(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &DayAvailability{
		Date:     date,
		Class:    class,
		Windows:  windows,
		Duration: duration,
		Party:    party,
		Slots:    schedule.Availability(existing, windows, duration, party, s.cfg.SlotStep, s.cfg.Capacity),
	}, nil
}

// TryBook admits req or explains why not. It never retries.
// The start must lie on the slot_step grid of its window, since capacity is
// claimed per grid cell. A party larger than the total capacity can never fit
// and is reported as ErrCapacityExceeded, the same verdict Availability gives.
func (s *BookingService) TryBook(ctx context.Context, req BookingRequest) (int64, error) {
	req.VisitorName = strings.TrimSpace(req.VisitorName)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := s.validate(req); err != nil {
		s.reject(req, metrics.ResultValidation, err)
		return 0, err
	}

	_, windows, err := s.Windows(req.Date)
	if err != nil {
		s.reject(req, metrics.ResultConfiguration, err)
		return 0, err
	}
	interval := req.Interval()
	if !windows.Fits(interval) {
		err := fmt.Errorf("%w: %s on %s is outside visiting hours", ErrValidation, interval, req.Date)
		s.reject(req, metrics.ResultValidation, err)
		return 0, err
	}

	// Fresh read; cached listings are never trusted for admission.
	existing, err := s.repo.ListBookings(ctx, req.Date)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		s.reject(req, metrics.ResultStorage, err)
		return 0, err
	}
	if remaining := schedule.RemainingCapacity(existing, interval, s.cfg.Capacity); remaining < req.PartySize {
		err := fmt.Errorf("%w: %d of %d places left for %s", ErrCapacityExceeded, remaining, req.PartySize, interval)
		s.reject(req, metrics.ResultCapacity, err)
		return 0, err
	}

	id, err := s.repo.InsertBooking(ctx, models.NewBooking{
		Date:        req.Date,
		Interval:    interval,
		VisitorName: req.VisitorName,
		Phone:       req.Phone,
		PartySize:   req.PartySize,
		SlotStep:    s.cfg.SlotStep,
		Capacity:    s.cfg.Capacity,
	})
	switch {
	case err == nil:
	case errors.Is(err, database.ErrConflict):
		err = fmt.Errorf("%w: slot was taken concurrently", ErrCapacityExceeded)
		s.reject(req, metrics.ResultCapacity, err)
		return 0, err
	default:
		err = fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		s.reject(req, metrics.ResultStorage, err)
		return 0, err
	}

	metrics.IncAdmission(metrics.ResultAdmitted)
	s.logger.Info().Int64("booking_id", id).Str("date", req.Date.String()).Str("interval", interval.String()).
		Int("party_size", req.PartySize).Msg("Booking admitted")
	s.publish(events.EventBookingCreated, events.BookingEventPayload{
		BookingID:   id,
		Date:        req.Date,
		Start:       interval.Start,
		End:         interval.End,
		VisitorName: req.VisitorName,
		PartySize:   req.PartySize,
	})
	return id, nil
}

func (s *BookingService) validate(req BookingRequest) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if req.VisitorName == "" {
		return fmt.Errorf("%w: visitor name is required", ErrValidation)
	}
	if len([]rune(req.VisitorName)) > models.MaxNameLength {
		return fmt.Errorf("%w: visitor name is longer than %d characters", ErrValidation, models.MaxNameLength)
	}
	if len([]rune(req.Phone)) > models.MaxPhoneLength {
		return fmt.Errorf("%w: phone is longer than %d characters", ErrValidation, models.MaxPhoneLength)
	}
	if req.PartySize < 1 {
		return fmt.Errorf("%w: party size must be at least 1", ErrValidation)
	}
	if req.Duration <= 0 || !s.cfg.AllowsDuration(req.Duration) {
		return fmt.Errorf("%w: duration %d is not offered", ErrValidation, req.Duration)
	}
	if !req.Start.Valid() || int(req.Start)%s.cfg.SlotStep != 0 {
		return fmt.Errorf("%w: start %s is not on the %d-minute grid", ErrValidation, req.Start, s.cfg.SlotStep)
	}

	now := s.now().In(s.loc)
	today := models.DateOf(now)
	if !s.cfg.AllowPastDates {
		if req.Date.Before(today) {
			return fmt.Errorf("%w: %s is in the past", ErrValidation, req.Date)
		}
		if req.Date == today && req.Start < models.NewTimeOfDay(now.Hour(), now.Minute()) {
			return fmt.Errorf("%w: %s has already started", ErrValidation, req.Start)
		}
	}
	if s.cfg.MaxBookingDays > 0 && today.DaysUntil(req.Date) > s.cfg.MaxBookingDays {
		return fmt.Errorf("%w: bookings open %d days ahead", ErrValidation, s.cfg.MaxBookingDays)
	}
	return nil
}

func (s *BookingService) reject(req BookingRequest, result string, err error) {
	metrics.IncAdmission(result)

	ev := s.logger.Warn()
	if result == metrics.ResultStorage || result == metrics.ResultConfiguration {
		ev = s.logger.Error()
	}
	ev.Err(err).Str("date", req.Date.String()).Str("start", req.Start.String()).
		Int("duration", req.Duration).Int("party_size", req.PartySize).Str("result", result).Msg("Booking rejected")

	s.publish(events.EventBookingRejected, events.BookingEventPayload{
		Date:      req.Date,
		Start:     req.Start,
		End:       req.Start.Add(req.Duration),
		PartySize: req.PartySize,
		Reason:    result,
	})
}

// ListBookings returns the bookings of date ordered by start.
func (s *BookingService) ListBookings(ctx context.Context, date models.Date) ([]models.Booking, error) {
	bookings, err := s.repo.ListBookings(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return bookings, nil
}

// ListBookingsRange returns the bookings between from and to inclusive.
func (s *BookingService) ListBookingsRange(ctx context.Context, from, to models.Date) ([]models.Booking, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: invalid range %s..%s", ErrValidation, from, to)
	}
	bookings, err := s.repo.ListBookingsRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return bookings, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid booking id %d", ErrValidation, id)
	}

	err := s.repo.DeleteBooking(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: booking %d", ErrNotFound, id)
	default:
		s.logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to delete booking")
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.logger.Info().Int64("booking_id", id).Msg("Booking deleted")
	s.publish(events.EventBookingDeleted, events.BookingEventPayload{BookingID: id})
	return nil
}

// UpsertDutyContact stores the contact for (date, period); the last write wins.
func (s *BookingService) UpsertDutyContact(ctx context.Context, contact models.DutyContact) error {
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Phone = strings.TrimSpace(contact.Phone)
	if contact.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	period, err := models.ParsePeriod(string(contact.Period))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	contact.Period = period
	if contact.Name == "" {
		return fmt.Errorf("%w: duty contact name is required", ErrValidation)
	}
	contact.UpdatedAt = s.now()

	if err := s.repo.UpsertDutyContact(ctx, contact); err != nil {
		s.logger.Error().Err(err).Str("date", contact.Date.String()).Msg("Failed to upsert duty contact")
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.publish(events.EventDutyUpdated, events.DutyEventPayload{
		Date:   contact.Date,
		Period: contact.Period,
		Name:   contact.Name,
	})
	return nil
}

func (s *BookingService) ListDutyContacts(ctx context.Context, date models.Date) ([]models.DutyContact, error) {
	contacts, err := s.repo.ListDutyContacts(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return contacts, nil
}

// maxRangeDays bounds range queries that fan out per day.
const maxRangeDays = 366

// DutyContactsRange collects the duty contacts of every date in [from, to].
func (s *BookingService) DutyContactsRange(ctx context.Context, from, to models.Date) ([]models.DutyContact, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) || from.DaysUntil(to) > maxRangeDays {
		return nil, fmt.Errorf("%w: invalid range %s..%s", ErrValidation, from, to)
	}
	var out []models.DutyContact
	for d := from; !d.After(to); d = d.AddDays(1) {
		contacts, err := s.ListDutyContacts(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, contacts...)
	}
	return out, nil
}

// Ping reports whether the repository is reachable.
func (s *BookingService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *BookingService) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
