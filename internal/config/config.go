package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/nfrund/loginflow/internal/pubsub"
)

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// Config holds all configuration for the application.
type Config struct {
	AuthURL     string        `validate:"required,url"`
	AuthTimeout time.Duration `validate:"gt=0"`

	ProbeTarget   string        `validate:"required,hostname_port"`
	ProbeInterval time.Duration `validate:"gt=0"`
	ProbeTimeout  time.Duration `validate:"gt=0"`

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFile   string

	Server  Server
	Tracing pubsub.TracingConfig
}

// Server configures the development auth server.
type Server struct {
	Addr  string `validate:"required"`
	Users string `validate:"required"`
	// TokenSecret may be empty; the server then generates one per start.
	TokenSecret string
	TokenTTL    time.Duration `validate:"gt=0"`
	RateLimit   int           `validate:"gt=0"`
}

// Lookup reads one variable from the environment.
type Lookup func(key string) (string, bool)

// New loads configuration from ./.env and the process environment.
func New() (*Config, error) {
	return Load(afero.NewOsFs(), DefaultEnvFile, os.LookupEnv)
}

// Load reads envFile from fsys (a missing file is fine), overlays the
// variables returned by lookup, applies defaults and validates the result.
func Load(fsys afero.Fs, envFile string, lookup Lookup) (*Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		data, err := afero.ReadFile(fsys, envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		default:
			fileVars, err = godotenv.Parse(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", envFile, err)
			}
		}
	}

	r := reader{file: fileVars, lookup: lookup}
	tracing := pubsub.DefaultTracingConfig()

	cfg := &Config{
		AuthURL:       r.str("AUTH_URL", "http://127.0.0.1:8089"),
		AuthTimeout:   r.duration("AUTH_TIMEOUT", 10*time.Second),
		ProbeInterval: r.duration("PROBE_INTERVAL", 5*time.Second),
		ProbeTimeout:  r.duration("PROBE_TIMEOUT", 2*time.Second),
		LogFormat:     strings.ToLower(r.str("LOG_FORMAT", "text")),
		LogLevel:      strings.ToLower(r.str("LOG_LEVEL", "info")),
		LogFile:       r.str("LOG_FILE", ""),
		Server: Server{
			Addr:        r.str("SERVER_ADDR", ":8089"),
			Users:       r.str("SERVER_USERS", "user:pass"),
			TokenSecret: r.str("SERVER_TOKEN_SECRET", ""),
			TokenTTL:    r.duration("SERVER_TOKEN_TTL", time.Hour),
			RateLimit:   r.integer("SERVER_RATE_LIMIT", 10),
		},
		Tracing: pubsub.TracingConfig{
			Enabled:     r.boolean("TRACING_ENABLED", tracing.Enabled),
			ServiceName: r.str("TRACING_SERVICE_NAME", tracing.ServiceName),
			ZipkinURL:   r.str("TRACING_ZIPKIN_URL", tracing.ZipkinURL),
		},
	}
	cfg.ProbeTarget = r.str("PROBE_TARGET", hostPort(cfg.AuthURL))

	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// hostPort derives a dialable address from a base URL, filling in the
// scheme's default port.
func hostPort(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// reader resolves a key from the environment first, then the .env file.
type reader struct {
	file   map[string]string
	lookup Lookup
	errs   []error
}

func (r *reader) raw(key string) (string, bool) {
	if r.lookup != nil {
		if v, ok := r.lookup(key); ok {
			return v, true
		}
	}
	v, ok := r.file[key]
	return v, ok
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
