package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	PageSpeed PageSpeedConfig
	Batch     BatchConfig
	Scheduler SchedulerConfig
	Alerts    AlertsConfig
	Auth      AuthConfig
	Targets   TargetsConfig
	Mimir     MimirConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

// StorageConfig selects the blob backend: memory, sqlite, postgres or redis.
type StorageConfig struct {
	Driver     string
	DSN        string
	RedisURL   string
	MaxHistory int
}

type PageSpeedConfig struct {
	BaseURL           string
	APIKey            string
	Strategy          string
	Timeout           time.Duration
	RequestsPerMinute int
}

type BatchConfig struct {
	Delay time.Duration
}

type SchedulerConfig struct {
	// used when settings carry no auto-refresh interval
	Interval time.Duration
}

type AlertsConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

type TargetsConfig struct {
	ResolveHosts bool
	Resolver     string
}

type MimirConfig struct {
	URL           string
	TenantHeader  string
	TenantID      string
	BatchSize     int
	FlushInterval time.Duration
	AuthToken     string
}

type LogConfig struct {
	Level       string
	Development bool
}

// Load reads config.yaml from ".", "./config" or the explicit path, then
// VITALS_* variables, then the unprefixed secret variables. A .env file in
// the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("VITALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "vitals.db")
	v.SetDefault("storage.redisurl", "redis://localhost:6379/0")
	v.SetDefault("storage.maxhistory", 30)
	v.SetDefault("pagespeed.baseurl", "https://www.googleapis.com")
	v.SetDefault("pagespeed.strategy", "mobile")
	v.SetDefault("pagespeed.timeout", "90s")
	v.SetDefault("pagespeed.requestsperminute", 60)
	v.SetDefault("batch.delay", "2s")
	v.SetDefault("scheduler.interval", "0s")
	v.SetDefault("alerts.timeout", "10s")
	v.SetDefault("targets.resolvehosts", true)
	v.SetDefault("targets.resolver", "8.8.8.8:53")
	v.SetDefault("mimir.tenantheader", "X-Scope-OrgID")
	v.SetDefault("mimir.tenantid", "vitals")
	v.SetDefault("mimir.batchsize", 1000)
	v.SetDefault("mimir.flushinterval", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if key := os.Getenv("PAGESPEED_API_KEY"); key != "" {
		cfg.PageSpeed.APIKey = key
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Storage.DSN = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Storage.RedisURL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if url := os.Getenv("MIMIR_URL"); url != "" {
		cfg.Mimir.URL = url
	}
	if token := os.Getenv("MIMIR_AUTH_TOKEN"); token != "" {
		cfg.Mimir.AuthToken = token
	}

	return &cfg, nil
}
