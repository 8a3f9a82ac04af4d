package api

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"visits/internal/config"

	"golang.org/x/crypto/bcrypt"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	passwordHeaderDefault = "x-visit-password"
	clientKeyUnknown      = "unknown"

	PermReadSchedule = "read:schedule"
	PermBook         = "write:bookings"
	PermAdmin        = "admin"
)

var (
	errMissingCredentials = errors.New("missing credentials")
	errInvalidAPIKey      = errors.New("invalid api key")
	errInvalidPassword    = errors.New("invalid password")
	errPermissionDenied   = errors.New("permission denied")
)

// visitorPermissions are granted by the shared visitor password.
var visitorPermissions = []string{PermReadSchedule, PermBook}

// Auth checks API keys or the shared visitor password.
type Auth struct {
	cfg            config.APIAuthConfig
	clients        map[string]config.APIClientKey
	apiKeyHeader   string
	passwordHeader string
}

func NewAuth(cfg config.APIAuthConfig) *Auth {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}

	apiKeyHeader := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if apiKeyHeader == "" {
		apiKeyHeader = apiKeyHeaderDefault
	}
	passwordHeader := strings.ToLower(strings.TrimSpace(cfg.PasswordHeader))
	if passwordHeader == "" {
		passwordHeader = passwordHeaderDefault
	}

	return &Auth{cfg: cfg, clients: m, apiKeyHeader: apiKeyHeader, passwordHeader: passwordHeader}
}

// Require wraps next with an authentication and permission check.
func (a *Auth) Require(perm string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if err := a.check(r, perm); err != nil {
			statusCode := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				statusCode = http.StatusForbidden
			}
			writeError(w, r, statusCode, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Auth) check(r *http.Request, perm string) error {
	if apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader)); apiKey != "" {
		client, ok := a.clients[apiKey]
		if !ok {
			return errInvalidAPIKey
		}
		return checkPermissions(client.Permissions, perm)
	}

	if password := r.Header.Get(a.passwordHeader); password != "" {
		if !a.passwordMatches(password) {
			return errInvalidPassword
		}
		return checkPermissions(visitorPermissions, perm)
	}

	return errMissingCredentials
}

func (a *Auth) passwordMatches(password string) bool {
	switch {
	case a.cfg.SharedPasswordHash != "":
		return bcrypt.CompareHashAndPassword([]byte(a.cfg.SharedPasswordHash), []byte(password)) == nil
	case a.cfg.SharedPassword != "":
		return subtle.ConstantTimeCompare([]byte(a.cfg.SharedPassword), []byte(password)) == 1
	default:
		return false
	}
}

func checkPermissions(granted []string, required string) error {
	if required == "" {
		return nil
	}
	// If permissions list is empty, treat as allow-all.
	if len(granted) == 0 {
		return nil
	}
	for _, p := range granted {
		p = strings.TrimSpace(p)
		if p == required || p == PermAdmin {
			return nil
		}
	}
	return errPermissionDenied
}

// clientKey identifies the caller for rate limiting.
func (a *Auth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader)); apiKey != "" {
		return "key:" + apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "ip:" + host
	}
	return clientKeyUnknown
}
