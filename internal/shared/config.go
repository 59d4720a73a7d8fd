package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	StoreDriver    string // mysql|memory
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	LocationIQBase string
	LocationIQKey  string
	GeocodeRPS     int
	JWTSecret      string
	ImportWorkers  int
	CacheTTL       time.Duration
}

// Load reads configuration from the environment, after merging a local .env if
// one exists. Variables already set in the environment win over .env.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer config value")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		StoreDriver:    env("STORE_DRIVER", "mysql"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/listings?parseTime=true&clientFoundRows=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		LocationIQBase: env("LOCATIONIQ_BASE_URL", "https://us1.locationiq.com/v1"),
		LocationIQKey:  env("LOCATIONIQ_API_KEY", ""),
		GeocodeRPS:     atoi("GEOCODE_RPS", 2),
		JWTSecret:      env("JWT_SECRET", ""),
		ImportWorkers:  atoi("IMPORT_WORKERS", 4),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 86400)) * time.Second,
	}
	if c.LocationIQKey == "" {
		log.Warn().Msg("LOCATIONIQ_API_KEY is empty")
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; listing writes will be rejected")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
