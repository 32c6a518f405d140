package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiresIn = "JWT_EXPIRES_IN"
)

// Environment names with special handling.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// ServerConfig holds listener and HTTP surface settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	HTTPSEnabled   bool     `yaml:"https-enabled"`
	HTTPSPort      int      `yaml:"https-port"`
	CertFile       string   `yaml:"cert-file"`
	KeyFile        string   `yaml:"key-file"`
	RedirectHTTP   bool     `yaml:"redirect-http"`
	APIPrefix      string   `yaml:"api-prefix"`
	Environment    string   `yaml:"environment"`
	CORSOrigins    []string `yaml:"cors-origins"`
	TrustedProxies []string `yaml:"trusted-proxies"`
}

// RedisConfig points the rate limiter at a shared Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RateLimitConfig holds the per-client request ceiling.
type RateLimitConfig struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max-requests"`
	Redis       RedisConfig   `yaml:"redis"`
}

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn string        `yaml:"expires-in"`
	Expiry    time.Duration `yaml:"-"`
}

// AdminConfig is the single privileged login identity.
type AdminConfig struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password-hash"`
}

// DatabaseConfig describes the FreeRADIUS SQL store.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"max-open-conns"`
	MaxIdleConns    int           `yaml:"max-idle-conns"`
	ConnMaxLifetime time.Duration `yaml:"conn-max-lifetime"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string          `yaml:"-"`
	Server     ServerConfig    `yaml:"server"`
	RateLimit  RateLimitConfig `yaml:"rate-limit"`
	JWT        JWTConfig       `yaml:"jwt"`
	Admin      AdminConfig     `yaml:"admin"`
	APIKeys    []string        `yaml:"api-keys"`
	Database   DatabaseConfig  `yaml:"database"`
	Log        LogConfig       `yaml:"log"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:        3000,
			HTTPSPort:   3443,
			APIPrefix:   "/api/v1",
			Environment: EnvironmentDevelopment,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		RateLimit: RateLimitConfig{
			Window:      15 * time.Minute,
			MaxRequests: 100,
			Redis:       RedisConfig{Prefix: "radapi:rl"},
		},
		JWT: JWTConfig{
			ExpiresIn: defaultJWTExpiresIn,
			Expiry:    defaultJWTExpiry,
		},
		Admin: AdminConfig{Username: "admin"},
		Database: DatabaseConfig{
			Driver:          "mysql",
			Host:            "localhost",
			Port:            3306,
			User:            "radius",
			Name:            "radius",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the optional YAML file at configPath and applies environment overrides.
// A missing file is not an error.
func Load(configPath string) (*AppConfig, error) {
	cfg := Defaults()
	if strings.TrimSpace(configPath) == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	cfg.ConfigPath = ResolveConfigPath(configPath)

	data, errRead := os.ReadFile(cfg.ConfigPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", errRead)
	}

	if errEnv := applyEnv(&cfg); errEnv != nil {
		return nil, errEnv
	}

	expiry, errExpiry := ParseExpiry(cfg.JWT.ExpiresIn)
	if errExpiry != nil {
		return nil, fmt.Errorf("jwt expires-in: %w", errExpiry)
	}
	cfg.JWT.Expiry = expiry
	cfg.Server.APIPrefix = normalizePrefix(cfg.Server.APIPrefix)
	cfg.Server.Environment = strings.ToLower(strings.TrimSpace(cfg.Server.Environment))
	cfg.APIKeys = splitList(cfg.APIKeys)
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies)
	return &cfg, nil
}

// Validate reports configuration that would leave the service unusable or unsafe.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("missing jwt secret (set `jwt.secret` or JWT_SECRET)")
	}
	if strings.TrimSpace(c.Admin.Username) == "" {
		return errors.New("missing admin username")
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		return errors.New("missing admin password (set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH)")
	}
	if err := validatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if c.Server.HTTPSEnabled {
		if err := validatePort("server.https-port", c.Server.HTTPSPort); err != nil {
			return err
		}
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return errors.New("https enabled but cert-file or key-file is not set")
		}
	}
	if c.RateLimit.Window < 0 || c.RateLimit.MaxRequests < 0 {
		return errors.New("rate limit window and max-requests must not be negative")
	}
	return nil
}

// IsProduction reports whether internal error details must be hidden.
func (c *AppConfig) IsProduction() bool {
	return c.Server.Environment == EnvironmentProduction
}

// DatabaseDSN returns the explicit DSN or one built from the individual parts.
func (c DatabaseConfig) DatabaseDSN() (string, error) {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn, nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "", "mysql", "mariadb":
		return fmt.Sprintf("mysql://%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			c.User, c.Password, c.Host, c.Port, c.Name), nil
	case "postgres", "postgresql":
		return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
			url.UserPassword(c.User, c.Password).String(), c.Host, c.Port, c.Name), nil
	case "sqlite":
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = "radius.db"
		}
		return "file:" + name, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
}

// defaultJWTExpiry is used when the config omits JWT expiry.
const (
	defaultJWTExpiresIn = "24h"
	defaultJWTExpiry    = 24 * time.Hour
)

// ParseExpiry accepts Go durations plus a day suffix ("7d").
func ParseExpiry(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultJWTExpiry, nil
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, errAtoi := strconv.Atoi(days)
		if errAtoi != nil || n <= 0 {
			return 0, fmt.Errorf("invalid expiry %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, errParse := time.ParseDuration(raw)
	if errParse != nil {
		return 0, fmt.Errorf("invalid expiry %q", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive: %q", raw)
	}
	return d, nil
}

func applyEnv(cfg *AppConfig) error {
	var errs []error
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			n, errAtoi := strconv.Atoi(strings.TrimSpace(v))
			if errAtoi != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, errAtoi))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}
	setList := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = []string{v}
		}
	}

	setInt("PORT", &cfg.Server.Port)
	setBool("HTTPS_ENABLED", &cfg.Server.HTTPSEnabled)
	setInt("HTTPS_PORT", &cfg.Server.HTTPSPort)
	setString("SSL_CERT_PATH", &cfg.Server.CertFile)
	setString("SSL_KEY_PATH", &cfg.Server.KeyFile)
	setBool("REDIRECT_HTTP_TO_HTTPS", &cfg.Server.RedirectHTTP)
	setString("API_PREFIX", &cfg.Server.APIPrefix)
	setString("NODE_ENV", &cfg.Server.Environment)
	setString("APP_ENV", &cfg.Server.Environment)
	setList("CORS_ORIGIN", &cfg.Server.CORSOrigins)
	setList("TRUSTED_PROXIES", &cfg.Server.TrustedProxies)

	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_MS")); v != "" {
		ms, errAtoi := strconv.Atoi(v)
		if errAtoi != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW_MS: %w", errAtoi))
		} else {
			cfg.RateLimit.Window = time.Duration(ms) * time.Millisecond
		}
	}
	setInt("RATE_LIMIT_MAX_REQUESTS", &cfg.RateLimit.MaxRequests)
	setString("RATE_LIMIT_REDIS_ADDR", &cfg.RateLimit.Redis.Addr)
	setString("RATE_LIMIT_REDIS_PASSWORD", &cfg.RateLimit.Redis.Password)
	setInt("RATE_LIMIT_REDIS_DB", &cfg.RateLimit.Redis.DB)
	setString("RATE_LIMIT_REDIS_PREFIX", &cfg.RateLimit.Redis.Prefix)

	setString(EnvJWTSecret, &cfg.JWT.Secret)
	setString(EnvJWTExpiresIn, &cfg.JWT.ExpiresIn)
	setString("ADMIN_USERNAME", &cfg.Admin.Username)
	setString("ADMIN_PASSWORD", &cfg.Admin.Password)
	setString("ADMIN_PASSWORD_HASH", &cfg.Admin.PasswordHash)
	setList("API_KEY", &cfg.APIKeys)

	setString(EnvDBConnection, &cfg.Database.DSN)
	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_HOST", &cfg.Database.Host)
	setInt("DB_PORT", &cfg.Database.Port)
	setString("DB_USER", &cfg.Database.User)
	setString("DB_PASSWORD", &cfg.Database.Password)
	setString("DB_NAME", &cfg.Database.Name)
	setInt("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	setInt("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	if v := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME")); v != "" {
		d, errParse := time.ParseDuration(v)
		if errParse != nil {
			errs = append(errs, fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", errParse))
		} else {
			cfg.Database.ConnMaxLifetime = d
		}
	}

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)
	setString("LOG_FILE", &cfg.Log.File)

	return errors.Join(errs...)
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid %s: %d", name, port)
	}
	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	return "/" + strings.Trim(prefix, "/")
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
