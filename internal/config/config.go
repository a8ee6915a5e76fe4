// Package config loads storefront settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/kingshipwears/storefront/internal/handoff"
)

const (
	// Prefix is prepended to every variable name.
	Prefix = "KINGSHIP_"

	defaultEnvFile = ".env"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string `env:"ENV" envDefault:"local"`
	DevMode     bool   `env:"DEV_MODE"`

	Server    ServerConfig    `envPrefix:"SERVER_"`
	Paths     PathsConfig
	Session   SessionConfig   `envPrefix:"SESSION_"`
	WhatsApp  WhatsAppConfig  `envPrefix:"WHATSAPP_"`
	Splash    SplashConfig    `envPrefix:"SPLASH_"`
	Cart      CartConfig      `envPrefix:"CART_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Telemetry TelemetryConfig `envPrefix:"OTEL_"`
	Analytics AnalyticsConfig `envPrefix:"ANALYTICS_"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// PathsConfig points at on-disk templates and assets. An empty CatalogDir
// selects the embedded product set.
type PathsConfig struct {
	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"templates"`
	PublicDir    string `env:"PUBLIC_DIR" envDefault:"public"`
	LocalesDir   string `env:"LOCALES_DIR" envDefault:"locales"`
	CatalogDir   string `env:"CATALOG_DIR"`
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey string `env:"SIGNING_KEY"`
	Secure     bool   `env:"SECURE"`
}

// WhatsAppConfig names the order destination.
type WhatsAppConfig struct {
	Phone string `env:"PHONE" envDefault:"2348146240786"`
}

// SplashConfig controls the first-visit splash screen.
type SplashConfig struct {
	Duration time.Duration `env:"DURATION" envDefault:"2500ms"`
}

// CartConfig controls in-memory cart retention.
type CartConfig struct {
	IdleTTL       time.Duration `env:"IDLE_TTL" envDefault:"2h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// TelemetryConfig enables trace export when Endpoint, an OTLP/HTTP URL, is set.
type TelemetryConfig struct {
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"kingship-storefront"`
}

// AnalyticsConfig carries client instrumentation ids surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string `env:"GA4_ID"`
	GTMContainerID   string `env:"GTM_ID"`
	Debug            bool   `env:"DEBUG"`
}

// IsProduction reports whether the environment names a production deployment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	}
	return false
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values. They take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles configuration from defaults, the .env file, the process
// environment and explicit values, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	values, err := environmentValues(options)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Environment: values,
		Prefix:      Prefix,
	}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	cfg.WhatsApp.Phone = handoff.NormalizePhone(cfg.WhatsApp.Phone)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Telemetry.Endpoint = strings.TrimSpace(cfg.Telemetry.Endpoint)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var fields []string
	if strings.TrimSpace(c.Server.Addr) == "" {
		fields = append(fields, "Server.Addr")
	}
	if handoff.ValidatePhone(c.WhatsApp.Phone) != nil {
		fields = append(fields, "WhatsApp.Phone")
	}
	if c.Splash.Duration <= 0 {
		fields = append(fields, "Splash.Duration")
	}
	if c.Cart.IdleTTL <= 0 {
		fields = append(fields, "Cart.IdleTTL")
	}
	if c.Cart.SweepInterval <= 0 {
		fields = append(fields, "Cart.SweepInterval")
	}
	if c.Server.RequestTimeout <= 0 {
		fields = append(fields, "Server.RequestTimeout")
	}
	if c.Server.ShutdownTimeout <= 0 {
		fields = append(fields, "Server.ShutdownTimeout")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		fields = append(fields, "Log.Level")
	}
	if c.IsProduction() && len(strings.TrimSpace(c.Session.SigningKey)) < 32 {
		fields = append(fields, "Session.SigningKey")
	}
	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func environmentValues(options loaderOptions) (map[string]string, error) {
	values := make(map[string]string)
	merge := func(source map[string]string) {
		for key, value := range source {
			values[key] = value
		}
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	merge(dotEnv)
	if options.useSystemEnv {
		system := make(map[string]string)
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			system[key] = value
		}
		merge(system)
	}
	merge(options.envMap)
	return values, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}
