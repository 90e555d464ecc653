package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/catadmin/internal/apiclient"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	API     APIConfig         `yaml:"api"`
	Journal JournalConfig     `yaml:"journal"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Journal.Validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel    slog.Level `yaml:"log_level"`
	HTTP        HTTPConfig `yaml:"http"`
	CORSOrigins []string   `yaml:"cors_origins"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// APIConfig describes the catalog REST API the admin talks to.
type APIConfig struct {
	BaseURL            string            `yaml:"base_url"`
	Timeout            time.Duration     `yaml:"timeout"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`
	Headers            map[string]string `yaml:"headers"`
	RateLimit          RateLimitConfig   `yaml:"rate_limit"`
}

// RateLimitConfig limits outbound API requests. RPS 0 disables the limit.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(httpURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimit),
	)
}

// Validate validates the rate limit configuration.
func (c RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RPS, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
	)
}

// ClientOptions converts the section into API client options.
func (c *APIConfig) ClientOptions() apiclient.Options {
	return apiclient.Options{
		BaseURL:            c.BaseURL,
		Timeout:            c.Timeout,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Headers:            c.Headers,
		RPS:                c.RateLimit.RPS,
		Burst:              c.RateLimit.Burst,
	}
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// JournalConfig holds the operation journal configuration.
type JournalConfig struct {
	Path string `yaml:"path"`
	// Retention is how long entries are kept; 0 keeps them forever.
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Retention, validation.Min(time.Duration(0))),
		validation.Field(&c.PruneInterval, validation.Min(time.Duration(0))),
	)
}

// EventsConfig holds the SSE broker configuration.
type EventsConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				RPS:   20,
				Burst: 10,
			},
		},
		Journal: JournalConfig{
			Path:          "./catadmin.db",
			Retention:     30 * 24 * time.Hour,
			PruneInterval: time.Hour,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
	}
}
