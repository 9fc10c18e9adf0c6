package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	// Base of links sent in emails, e.g. https://pm.example.com.
	PublicURL       string        `env:"HTTP_PUBLIC_URL" env-required:"true"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
	// Applies the embedded schema on startup.
	Migrate        bool          `env:"POSTGRES_MIGRATE" env-default:"true"`
}

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR" env-required:"true"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" env-default:"0"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	PingTimeout time.Duration `env:"REDIS_PING_TIMEOUT" env-default:"5s"`
}

type AuthConfig struct {
	Issuer                string        `env:"AUTH_ISSUER" env-default:"project-manager"`
	SigningKey            string        `env:"AUTH_SIGNING_KEY" env-required:"true"`
	SessionTTL            time.Duration `env:"AUTH_SESSION_TTL" env-default:"12h"`
	RememberMeTTL         time.Duration `env:"AUTH_REMEMBER_ME_TTL" env-default:"336h"`
	CookieName            string        `env:"AUTH_COOKIE_NAME" env-default:"pm_session"`
	CookieSecure          bool          `env:"AUTH_COOKIE_SECURE" env-default:"false"`
	EmailConfirmationTTL  time.Duration `env:"AUTH_EMAIL_CONFIRMATION_TTL" env-default:"24h"`
	RequireConfirmedEmail bool          `env:"AUTH_REQUIRE_CONFIRMED_EMAIL" env-default:"false"`
}

// SMTPConfig configures outgoing mail. An empty host makes the
// application log emails instead of sending them.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" env-default:"no-reply@localhost"`
	NoTLS    bool   `env:"SMTP_NO_TLS" env-default:"false"`
}
