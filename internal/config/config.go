// Package config loads runtime configuration from defaults, an optional
// YAML file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Auth         AuthConfig         `koanf:"auth"`
	Email        EmailConfig        `koanf:"email"`
	Verification VerificationConfig `koanf:"verification"`
	CORS         CORSConfig         `koanf:"cors"`
	Logging      LoggingConfig      `koanf:"logging"`
}

type ServerConfig struct {
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	TokenTTL        time.Duration `koanf:"token_ttl"`
	BcryptCost      int           `koanf:"bcrypt_cost"`
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

type EmailConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Username    string        `koanf:"username"`
	Password    string        `koanf:"password"`
	From        string        `koanf:"from"`
	FromName    string        `koanf:"from_name"`
	FrontendURL string        `koanf:"frontend_url"`
	Timeout     time.Duration `koanf:"timeout"`
	Attempts    int           `koanf:"attempts"`
	Backoff     time.Duration `koanf:"backoff"`
}

// Configured reports whether SMTP credentials are present.
func (c EmailConfig) Configured() bool {
	return c.Username != "" && c.Password != ""
}

type VerificationConfig struct {
	CodeTTL       time.Duration `koanf:"code_ttl"`
	Retention     time.Duration `koanf:"retention"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	// Resends allowed per email address per minute, with a burst of ResendBurst.
	ResendPerMinute float64 `koanf:"resend_per_minute"`
	ResendBurst     float64 `koanf:"resend_burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" or "json"
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              5000,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Database: DatabaseConfig{Path: "skill-match.db"},
		Auth: AuthConfig{
			TokenTTL:        time.Hour,
			BcryptCost:      12,
			LoginRateLimit:  5,
			LoginRateWindow: 15 * time.Minute,
		},
		Email: EmailConfig{
			Host:        "smtp.gmail.com",
			Port:        587,
			FromName:    "Skill Match Team",
			FrontendURL: "http://localhost:5173",
			Timeout:     30 * time.Second,
			Attempts:    3,
			Backoff:     3 * time.Second,
		},
		Verification: VerificationConfig{
			CodeTTL:         60 * time.Second,
			Retention:       30 * time.Minute,
			SweepInterval:   time.Minute,
			ResendPerMinute: 3,
			ResendBurst:     3,
		},
		CORS:    CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envKeys = map[string]string{
	"port":                  "server.port",
	"database_path":         "database.path",
	"jwt_secret":            "auth.jwt_secret",
	"jwt_expires_in":        "auth.token_ttl",
	"bcrypt_cost":           "auth.bcrypt_cost",
	"email_user":            "email.username",
	"email_pass":            "email.password",
	"email_host":            "email.host",
	"email_port":            "email.port",
	"email_from":            "email.from",
	"frontend_url":          "email.frontend_url",
	"allowed_origins":       "cors.allowed_origins",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"verification_code_ttl": "verification.code_ttl",
	"unverified_retention":  "verification.retention",
}

// envTransform maps known environment variables to config keys. Everything
// else is ignored.
func envTransform(key string) string {
	return envKeys[strings.ToLower(key)]
}

var sliceKeys = []string{"cors.allowed_origins"}

// splitSlices turns comma-separated env values into string slices.
func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for p := range strings.SplitSeq(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks required settings. Missing email credentials only warn:
// the server runs, and resend reports the misconfiguration to clients.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}
	if c.Verification.CodeTTL <= 0 {
		errs = append(errs, errors.New("verification code TTL must be positive"))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Logging.Format))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if !c.Email.Configured() {
		slog.Warn("email credentials missing: EMAIL_USER and EMAIL_PASS are not set")
	}
	return nil
}

// LogLevel parses Logging.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
