package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visits/internal/config"
	"visits/internal/database"
	"visits/internal/domain"
	"visits/internal/models"
	"visits/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var lisbon, _ = time.LoadLocation(models.DefaultTimezone)

// Monday 2025-06-02 10:00 in Lisbon.
func fixedClock() time.Time {
	return time.Date(2025, 6, 2, 10, 0, 0, 0, lisbon)
}

type testEnv struct {
	db     *database.DB
	svc    *service.BookingService
	server *HTTPServer
	ts     *httptest.Server
}

type envOption func(*config.Config)

func newTestEnv(t *testing.T, attempts domain.AttemptLimiter, opts ...envOption) *testEnv {
	t.Helper()
	cfg := config.Default()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc, err := service.NewBookingService(db, nil, cfg.Schedule, &logger, service.WithClock(fixedClock))
	require.NoError(t, err)

	server := NewHTTPServer(cfg.API, svc, attempts, &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{db: db, svc: svc, server: server, ts: ts}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

const bookingBody = `{"date":"2025-06-03","start":"16:30","duration":30,"visitor_name":"Maria","phone":"910","party_size":1}`
