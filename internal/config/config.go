package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sequence backends.
const (
	SequenceBackendDatabase = "database"
	SequenceBackendRedis    = "redis"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	NATSSubject     string
	JWTSecret       string
	SequenceBackend string
	AuditLocale     string
	DisplayCacheTTL time.Duration
	WriteRateLimit  int
	WriteRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ESTATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Estate CRM API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "audit.records")
	v.SetDefault("sequence.backend", SequenceBackendDatabase)
	v.SetDefault("audit.locale", "en")
	v.SetDefault("display_cache.ttl", "10m")
	v.SetDefault("write_rate.limit", 60)
	v.SetDefault("write_rate.window", "1m")

	cacheTTL, err := parseDuration(v, "display_cache.ttl", "10m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid display cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v, "write_rate.window", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid write rate window: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		NATSSubject:     v.GetString("nats.subject"),
		JWTSecret:       v.GetString("jwt.secret"),
		SequenceBackend: strings.ToLower(strings.TrimSpace(v.GetString("sequence.backend"))),
		AuditLocale:     strings.ToLower(strings.TrimSpace(v.GetString("audit.locale"))),
		DisplayCacheTTL: cacheTTL,
		WriteRateLimit:  v.GetInt("write_rate.limit"),
		WriteRateWindow: rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.SequenceBackend {
	case SequenceBackendDatabase:
	case SequenceBackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis sequence backend requires a redis url")
		}
	default:
		return Config{}, fmt.Errorf("unknown sequence backend %q", cfg.SequenceBackend)
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}
