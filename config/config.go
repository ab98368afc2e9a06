package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"inkcopilot/pkg/pricing"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	API        APIConfig
	Auth       AuthConfig
	Checkout   CheckoutConfig
	Pricing    pricing.Tier
	Cloudinary CloudinaryConfig
	Email      EmailConfig
	Scheduler  SchedulerConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	StaticDir    string // built SPA; index.html is served for page routes
	RateLimit    int    // requests per minute per IP
}

type DatabaseConfig struct {
	DSN             string // "sqlite://path" selects SQLite, anything else is a MySQL DSN
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// APIConfig points at the remote content API the dashboard is a client of.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthConfig describes the signed session cookie holding the API token.
type AuthConfig struct {
	SessionSecret string
	CookieName    string
	CookieMaxAge  time.Duration
	CookieSecure  bool
}

// DefaultSessionSecret is only fit for local development.
const DefaultSessionSecret = "change-me-in-production"

type CheckoutConfig struct {
	PollInterval  time.Duration
	Deadline      time.Duration
	RedirectDelay time.Duration
	RedirectTo    string
	CancelTimeout time.Duration
	SessionTTL    time.Duration // finished checkout sessions are evicted after this
	Retention     time.Duration // attempt rows older than this are purged
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// EmailConfig enables payment confirmation mail via Resend when APIKey is set.
type EmailConfig struct {
	APIKey  string
	From    string
	AppName string
}

type SchedulerConfig struct {
	JanitorSpec string
	PurgeSpec   string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and builds the config from defaults plus INK_* overrides.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         env("INK_PORT", "8080"),
			Env:          env("INK_ENV", "development"),
			ReadTimeout:  envDuration("INK_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: envDuration("INK_WRITE_TIMEOUT", 30*time.Second),
			StaticDir:    env("INK_STATIC_DIR", "./web/dist"),
			RateLimit:    envInt("INK_RATE_LIMIT", 120),
		},
		Database: DatabaseConfig{
			DSN:             env("INK_DATABASE_DSN", "sqlite://inkcopilot.db"),
			MaxIdleConns:    envInt("INK_DB_MAX_IDLE", 10),
			MaxOpenConns:    envInt("INK_DB_MAX_OPEN", 50),
			ConnMaxLifetime: envDuration("INK_DB_CONN_LIFETIME", time.Hour),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(env("INK_API_BASE_URL", "https://inkcopilot-backend.vercel.app"), "/"),
			Timeout: envDuration("INK_API_TIMEOUT", 20*time.Second),
		},
		Auth: AuthConfig{
			SessionSecret: env("INK_SESSION_SECRET", DefaultSessionSecret),
			CookieName:    env("INK_AUTH_COOKIE", "inkcopilot_auth"),
			CookieMaxAge:  envDuration("INK_AUTH_COOKIE_MAX_AGE", 7*24*time.Hour),
			CookieSecure:  envBool("INK_AUTH_COOKIE_SECURE", true),
		},
		Checkout: CheckoutConfig{
			PollInterval:  envDuration("INK_CHECKOUT_POLL_INTERVAL", 3*time.Second),
			Deadline:      envDuration("INK_CHECKOUT_DEADLINE", 15*time.Second),
			RedirectDelay: envDuration("INK_CHECKOUT_REDIRECT_DELAY", 2*time.Second),
			RedirectTo:    env("INK_CHECKOUT_REDIRECT_TO", "/dashboard"),
			CancelTimeout: envDuration("INK_CHECKOUT_CANCEL_TIMEOUT", 10*time.Second),
			SessionTTL:    envDuration("INK_CHECKOUT_SESSION_TTL", 30*time.Minute),
			Retention:     envDuration("INK_CHECKOUT_RETENTION", 90*24*time.Hour),
		},
		Pricing: pricing.DefaultTier,
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    env("INK_AVATAR_FOLDER", "inkcopilot/avatars"),
		},
		Email: EmailConfig{
			APIKey:  os.Getenv("RESEND_API_KEY"),
			From:    env("INK_EMAIL_FROM", "InkCopilot <billing@inkcopilot.com>"),
			AppName: env("INK_APP_NAME", "InkCopilot"),
		},
		Scheduler: SchedulerConfig{
			JanitorSpec: env("INK_JANITOR_SCHEDULE", "@every 1m"),
			PurgeSpec:   env("INK_PURGE_SCHEDULE", "@daily"),
		},
		Log: LogConfig{
			Level:  env("INK_LOG_LEVEL", "info"),
			Format: env("INK_LOG_FORMAT", "auto"),
		},
	}
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}
