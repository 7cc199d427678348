package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration for the sitetracker server.
type Config struct {
	AppEnv   string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`

	DB        DatabaseConfig  `mapstructure:"db"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	PG        PostgresConfig  `mapstructure:"pg"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Fleet     FleetConfig     `mapstructure:"fleet"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Gauge     GaugeConfig     `mapstructure:"gauge"`
}

// DatabaseConfig selects the gorm dialect.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

// DSN builds the postgres connection string used by both gorm and sqlx.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.DB)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// FleetConfig holds policy switches for the fleet lifecycle.
type FleetConfig struct {
	// PromoteRequireMember rejects promotion of users without an active membership.
	PromoteRequireMember bool `mapstructure:"promote_require_member"`
}

type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type GaugeConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads defaults, an optional config file and the environment, in that
// order of increasing precedence. Env keys are the upper-cased config keys
// with dots replaced by underscores (pg.host -> PG_HOST).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("sqlite.path", "sitetracker.db")

	v.SetDefault("pg.host", "localhost")
	v.SetDefault("pg.port", "5432")
	v.SetDefault("pg.user", "sitetracker")
	v.SetDefault("pg.password", "")
	v.SetDefault("pg.db", "sitetracker")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "12h")

	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("fleet.promote_require_member", true)
	v.SetDefault("cache.ttl_seconds", 600)
	v.SetDefault("gauge.interval", "30s")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Deployed under its short name rather than FLEET_PROMOTE_REQUIRE_MEMBER.
	_ = v.BindEnv("fleet.promote_require_member", "PROMOTE_REQUIRE_MEMBER")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid config: db.driver must be postgres or sqlite, got %q", c.DB.Driver)
	}
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 16 {
		return fmt.Errorf("invalid config: jwt.secret must be at least 16 characters")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("invalid config: rate_limit.rps and rate_limit.burst must be positive")
	}
	if c.Gauge.Interval <= 0 {
		return fmt.Errorf("invalid config: gauge.interval must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
