package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"visits/internal/export"
	"visits/internal/metrics"
	"visits/internal/models"
	"visits/internal/service"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 16

type createBookingRequest struct {
	Date        models.Date      `json:"date"`
	Start       models.TimeOfDay `json:"start"`
	Duration    int              `json:"duration"`
	VisitorName string           `json:"visitor_name"`
	Phone       string           `json:"phone"`
	PartySize   int              `json:"party_size"`
}

type dutyContactRequest struct {
	Date   models.Date `json:"date"`
	Period string      `json:"period"`
	Name   string      `json:"name"`
	Phone  string      `json:"phone"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year := s.svc.Today().Year
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid year")
			return
		}
		year = v
	}

	days, err := s.svc.Holidays(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "holidays": days})
}

func (s *HTTPServer) handleWindows(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}

	class, windows, err := s.svc.Windows(date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "day_class": class, "windows": windows})
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}
	duration, ok := queryInt(w, r, "duration", s.svc.DefaultDuration())
	if !ok {
		return
	}
	party, ok := queryInt(w, r, "party", 1)
	if !ok {
		return
	}

	day, err := s.svc.Availability(r.Context(), date, duration, party)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}

	bookings, err := s.svc.ListBookings(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if !s.allowAttempt(w, r) {
		return
	}

	var body createBookingRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Duration == 0 {
		body.Duration = s.svc.DefaultDuration()
	}

	id, err := s.svc.TryBook(r.Context(), service.BookingRequest{
		Date:        body.Date,
		Start:       body.Start,
		Duration:    body.Duration,
		VisitorName: body.VisitorName,
		Phone:       body.Phone,
		PartySize:   body.PartySize,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// allowAttempt enforces the shared booking attempt limit. Limiter failures let
// the request through.
func (s *HTTPServer) allowAttempt(w http.ResponseWriter, r *http.Request) bool {
	limit := s.cfg.AttemptLimit
	if s.attempts == nil || limit.Limit <= 0 {
		return true
	}

	allowed, err := s.attempts.Allow(r.Context(), "book:"+s.auth.clientKey(r), limit.Limit, limit.Window())
	if err != nil {
		s.log.Warn().Err(err).Msg("attempt limiter failed")
		return true
	}
	if !allowed {
		metrics.IncRateLimited("attempts")
		writeError(w, r, http.StatusTooManyRequests, "too many booking attempts")
		return false
	}
	return true
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid booking id")
		return
	}

	if err := s.svc.DeleteBooking(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListDutyContacts(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date")
	if !ok {
		return
	}

	contacts, err := s.svc.ListDutyContacts(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []models.DutyContact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "contacts": contacts})
}

func (s *HTTPServer) handleUpsertDutyContact(w http.ResponseWriter, r *http.Request) {
	var body dutyContactRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	err := s.svc.UpsertDutyContact(r.Context(), models.DutyContact{
		Date:   body.Date,
		Period: models.Period(body.Period),
		Name:   body.Name,
		Phone:  body.Phone,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	from, ok := queryDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryDate(w, r, "to")
	if !ok {
		return
	}

	bookings, err := s.svc.ListBookingsRange(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	contacts, err := s.svc.DutyContactsRange(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	report := export.Report{From: from, To: to, Bookings: bookings, Contacts: contacts}
	var buf bytes.Buffer
	if err := export.Write(&buf, report); err != nil {
		s.log.Error().Err(err).Msg("export failed")
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func queryDate(w http.ResponseWriter, r *http.Request, name string) (models.Date, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, name+" is required")
		return models.Date{}, false
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return models.Date{}, false
	}
	return d, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps service sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	// Storage and configuration details stay in the logs.
	if code >= http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	writeError(w, r, code, msg)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	body := map[string]string{"error": message}
	if id := RequestIDFromContext(r.Context()); id != "" {
		body["request_id"] = id
	}
	writeJSON(w, statusCode, body)
}
