package app

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abodyssee/crm/pkg/jwtx"
)

// Session store backends.
const (
	SessionStoreMemory   = "memory"
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)

type Config struct {
	Env       string `yaml:"env"`        // Environment (dev, prod) (default: dev)
	Port      int    `yaml:"port"`       // HTTP server port (default: 3000)
	LogLevel  string `yaml:"log_level"`  // Log level (debug, info, warn, error) (default: info)
	LogFormat string `yaml:"log_format"` // Log format (json, text) (default: json)

	DatabaseURL  string `yaml:"database_url"`  // Optional: selects PostgreSQL when set
	DatabaseFile string `yaml:"database_file"` // SQLite file when DatabaseURL is empty (default: ./crm.db)
	DatabaseSSL  string `yaml:"database_ssl"`  // Optional: sslmode applied to DatabaseURL

	SessionSecret          string        `yaml:"session_secret"`           // Required in prod, generated in dev
	SessionPreviousSecrets []string      `yaml:"session_previous_secrets"` // Optional: still verify older cookies
	SessionCookieName      string        `yaml:"session_cookie_name"`      // (default: crm-session)
	SessionTTL             time.Duration `yaml:"session_ttl"`              // Sliding session lifetime (default: 24h)
	SessionStore           string        `yaml:"session_store"`            // memory, database, redis (default: database)

	RedisAddr     string `yaml:"redis_addr"` // (default: localhost:6379)
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	LoginPath      string   `yaml:"login_path"`      // (default: /admin-secret-login-8934)
	PublicDir      string   `yaml:"public_dir"`      // Served at / (default: ./public)
	PrivateDir     string   `yaml:"private_dir"`     // Protected pages and scripts (default: ./private)
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS origins outside dev (default: http://localhost:3000)

	BrevoAPIKey          string `yaml:"brevo_api_key"` // Optional: contact form answers 503 without it
	BrevoAPIURL          string `yaml:"brevo_api_url"`
	ContactEmailTo       string `yaml:"contact_email_to"`
	ContactEmailFrom     string `yaml:"contact_email_from"`
	ContactEmailFromName string `yaml:"contact_email_from_name"`
	ContactTimezone      string `yaml:"contact_timezone"` // Date shown in emails (default: Europe/Paris)

	PepperFile string `yaml:"pepper_file"` // (default: ./pepper)

	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"` // (default: 10s)
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"` // (default: 1h)

	LoginMaxFailures   int           `yaml:"login_max_failures"`   // (default: 5)
	LoginFailureWindow time.Duration `yaml:"login_failure_window"` // (default: 15m)

	// TrustedProxyHops counts the reverse proxies in front of the service.
	// Client addresses are read that many entries from the right of
	// X-Forwarded-For; 0 uses the connection address (default: 1).
	TrustedProxyHops int `yaml:"trusted_proxy_hops"`

	BootstrapAdminUsername string `yaml:"bootstrap_admin_username"` // Optional
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password"`
	BootstrapAdminEmail    string `yaml:"bootstrap_admin_email"`

	MetricsEnabled bool `yaml:"metrics_enabled"` // Expose /metrics (default: true)
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func defaultConfig() Config {
	return Config{
		Env:                  "dev",
		Port:                 3000,
		LogLevel:             "info",
		LogFormat:            "json",
		DatabaseFile:         "crm.db",
		SessionCookieName:    "crm-session",
		SessionTTL:           jwtx.DefaultSessionTTL,
		SessionStore:         SessionStoreDatabase,
		RedisAddr:            "localhost:6379",
		LoginPath:            "/admin-secret-login-8934",
		PublicDir:            "public",
		PrivateDir:           "private",
		AllowedOrigins:       []string{"http://localhost:3000"},
		ContactEmailTo:       "contact@abodyssee.fr",
		ContactTimezone:      "Europe/Paris",
		PepperFile:           "pepper",
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 1 * time.Hour,
		LoginMaxFailures:     5,
		LoginFailureWindow:   15 * time.Minute,
		TrustedProxyHops:     1,
		MetricsEnabled:       true,
	}
}

// LoadConfig builds the configuration from defaults, then the optional YAML
// file named by CRM_CONFIG_FILE, then the environment. The environment wins.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CRM_CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.DatabaseFile = getEnvOrDefault("DATABASE_FILE", cfg.DatabaseFile)
	cfg.DatabaseSSL = getEnvOrDefault("DATABASE_SSL", cfg.DatabaseSSL)

	cfg.SessionSecret = getEnvOrDefault("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionPreviousSecrets = getEnvListOrDefault("SESSION_PREVIOUS_SECRETS", cfg.SessionPreviousSecrets)
	cfg.SessionCookieName = getEnvOrDefault("SESSION_COOKIE_NAME", cfg.SessionCookieName)
	cfg.SessionTTL = getEnvDurationOrDefault("SESSION_TTL", cfg.SessionTTL)
	cfg.SessionStore = strings.ToLower(getEnvOrDefault("SESSION_STORE", cfg.SessionStore))

	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvIntOrDefault("REDIS_DB", cfg.RedisDB)

	cfg.LoginPath = getEnvOrDefault("LOGIN_PATH", cfg.LoginPath)
	cfg.PublicDir = getEnvOrDefault("PUBLIC_DIR", cfg.PublicDir)
	cfg.PrivateDir = getEnvOrDefault("PRIVATE_DIR", cfg.PrivateDir)
	cfg.AllowedOrigins = getEnvListOrDefault("ALLOWED_ORIGINS", cfg.AllowedOrigins)

	cfg.BrevoAPIKey = getEnvOrDefault("BREVO_API_KEY", cfg.BrevoAPIKey)
	cfg.BrevoAPIURL = getEnvOrDefault("BREVO_API_URL", cfg.BrevoAPIURL)
	cfg.ContactEmailTo = getEnvOrDefault("CONTACT_EMAIL_TO", cfg.ContactEmailTo)
	cfg.ContactEmailFrom = getEnvOrDefault("CONTACT_EMAIL_FROM", cfg.ContactEmailFrom)
	cfg.ContactEmailFromName = getEnvOrDefault("CONTACT_EMAIL_FROM_NAME", cfg.ContactEmailFromName)
	cfg.ContactTimezone = getEnvOrDefault("CONTACT_TIMEZONE", cfg.ContactTimezone)

	cfg.PepperFile = getEnvOrDefault("PEPPER_FILE", cfg.PepperFile)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)

	cfg.LoginMaxFailures = getEnvIntOrDefault("LOGIN_MAX_FAILURES", cfg.LoginMaxFailures)
	cfg.LoginFailureWindow = getEnvDurationOrDefault("LOGIN_FAILURE_WINDOW", cfg.LoginFailureWindow)
	cfg.TrustedProxyHops = getEnvIntOrDefault("TRUSTED_PROXY_HOPS", cfg.TrustedProxyHops)

	cfg.BootstrapAdminUsername = getEnvOrDefault("BOOTSTRAP_ADMIN_USERNAME", cfg.BootstrapAdminUsername)
	cfg.BootstrapAdminPassword = getEnvOrDefault("BOOTSTRAP_ADMIN_PASSWORD", cfg.BootstrapAdminPassword)
	cfg.BootstrapAdminEmail = getEnvOrDefault("BOOTSTRAP_ADMIN_EMAIL", cfg.BootstrapAdminEmail)

	cfg.MetricsEnabled = getEnvBoolOrDefault("METRICS_ENABLED", cfg.MetricsEnabled)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate returns the first configuration problem found.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.DatabaseURL == "" && c.DatabaseFile == "" {
		return fmt.Errorf("database_file is required when database_url is empty")
	}

	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreDatabase, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session store %q (want memory, database or redis)", c.SessionStore)
	}
	if c.SessionStore == SessionStoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required for the redis session store")
	}

	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < jwtx.MinSecretSize {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", jwtx.MinSecretSize)
	}

	if !strings.HasPrefix(c.LoginPath, "/") || strings.ContainsAny(c.LoginPath, " {}") {
		return fmt.Errorf("login path %q must be an absolute path without spaces or braces", c.LoginPath)
	}
	if c.LoginMaxFailures <= 0 || c.LoginFailureWindow <= 0 {
		return fmt.Errorf("login failure limit must be positive")
	}
	if c.TrustedProxyHops < 0 {
		return fmt.Errorf("trusted_proxy_hops must not be negative")
	}
	return nil
}

// loadFile overlays a YAML file onto cfg. ${VAR} references are expanded
// from the environment before parsing.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

// getEnvListOrDefault reads a comma-separated list.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
