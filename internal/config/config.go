package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"visits/internal/models"
	"visits/internal/schedule"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ScheduleConfig struct {
	Timezone        string                `yaml:"timezone"`
	SlotStep        int                   `yaml:"slot_step_minutes"`
	DefaultDuration int                   `yaml:"default_duration_minutes"`
	Durations       []int                 `yaml:"durations"`
	Capacity        int                   `yaml:"capacity"`
	MaxBookingDays  int                   `yaml:"max_booking_days"`
	AllowPastDates  bool                  `yaml:"allow_past_dates"`
	Windows         schedule.WindowPolicy `yaml:"windows"`
}

// Location resolves the configured timezone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// AllowsDuration reports whether minutes is one of the offered durations.
func (s ScheduleConfig) AllowsDuration(minutes int) bool {
	if len(s.Durations) == 0 {
		return minutes > 0
	}
	for _, d := range s.Durations {
		if d == minutes {
			return true
		}
	}
	return false
}

type APIConfig struct {
	Enabled      bool                  `yaml:"enabled"`
	HTTP         APIHTTPConfig         `yaml:"http"`
	Auth         APIAuthConfig         `yaml:"auth"`
	RateLimit    APIRateLimitConfig    `yaml:"rate_limit"`
	AttemptLimit APIAttemptLimitConfig `yaml:"attempt_limit"`
}

type APIHTTPConfig struct {
	Port            int `yaml:"port"`
	ShutdownTimeout int `yaml:"shutdown_timeout_seconds"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`

	// Shared visitor password; either plain or a bcrypt hash.
	PasswordHeader     string `yaml:"password_header"`
	SharedPassword     string `yaml:"shared_password"`
	SharedPasswordHash string `yaml:"shared_password_hash"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// APIAttemptLimitConfig caps booking attempts per client and window, shared through Redis.
type APIAttemptLimitConfig struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"window_seconds"`
}

func (c APIAttemptLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	Driver        string         `yaml:"driver"`
	Path          string         `yaml:"path"`
	BusyTimeoutMS int            `yaml:"busy_timeout_ms"`
	Postgres      PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
	ConnectRetries int    `yaml:"connect_retries"`
}

// DSN builds a lib/pq key/value connection string.
func (p PostgresConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", p.Host),
		fmt.Sprintf("port=%d", p.Port),
		fmt.Sprintf("dbname=%s", p.DBName),
		fmt.Sprintf("sslmode=%s", p.SSLMode),
	}
	if p.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", p.User))
	}
	if p.Password != "" {
		parts = append(parts, fmt.Sprintf("password='%s'", strings.ReplaceAll(p.Password, "'", `\'`)))
	}
	return strings.Join(parts, " ")
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns a config with every default applied, for commands that run without a file.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	return ValidateSchedule(c.Schedule)
}

func ValidateSchedule(s ScheduleConfig) error {
	if _, err := s.Location(); err != nil {
		return err
	}
	if s.SlotStep <= 0 {
		return fmt.Errorf("slot_step_minutes must be positive, got %d", s.SlotStep)
	}
	if s.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", s.Capacity)
	}
	if s.MaxBookingDays < 0 {
		return fmt.Errorf("max_booking_days must not be negative, got %d", s.MaxBookingDays)
	}
	for _, d := range s.Durations {
		if d <= 0 {
			return fmt.Errorf("duration %d must be positive", d)
		}
	}
	if !s.AllowsDuration(s.DefaultDuration) {
		return fmt.Errorf("default duration %d is not among offered durations %v", s.DefaultDuration, s.Durations)
	}
	return s.Windows.Validate(s.SlotStep)
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "visits"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = 5000
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ShutdownTimeout == 0 {
		c.API.HTTP.ShutdownTimeout = 10
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.PasswordHeader == "" {
		c.API.Auth.PasswordHeader = "x-visit-password"
	}
	if c.API.AttemptLimit.Limit > 0 && c.API.AttemptLimit.WindowSeconds == 0 {
		c.API.AttemptLimit.WindowSeconds = 60
	}
	if c.Backup.Enabled && c.Backup.IntervalHours == 0 {
		c.Backup.IntervalHours = 24
	}

	// Schedule defaults
	s := &c.Schedule
	if s.Timezone == "" {
		s.Timezone = models.DefaultTimezone
	}
	if s.SlotStep == 0 {
		s.SlotStep = models.DefaultSlotStep
	}
	if s.DefaultDuration == 0 {
		s.DefaultDuration = models.DefaultDuration
	}
	if s.Durations == nil {
		s.Durations = append([]int(nil), models.DefaultDurations...)
	}
	if s.Capacity == 0 {
		s.Capacity = models.DefaultCapacity
	}
	// Only an absent set falls back to the default; an explicit [] closes the day class.
	defaults := schedule.DefaultWindowPolicy()
	if s.Windows.Weekday == nil {
		s.Windows.Weekday = defaults.Weekday
	}
	if s.Windows.WeekendOrHoliday == nil {
		s.Windows.WeekendOrHoliday = defaults.WeekendOrHoliday
	}
	s.Windows.Normalize()
}
