package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string // empty disables the transcript archive
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	RecommenderBase    string
	RecommenderTimeout time.Duration
	RecommenderRPS     int
	ProfileCacheTTL    time.Duration
	SessionTTL         time.Duration

	// request budget of the public API; always longer than the upstream call
	HTTPTimeout time.Duration

	ReparseWorkers int
	ReparseLimit   int
}

// Load reads the environment. A .env file in the working directory, when
// present, fills variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
		}
		return def
	}
	seconds := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", ""),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),

		RecommenderBase:    env("RECOMMENDER_BASE_URL", "http://localhost:5000"),
		RecommenderTimeout: seconds("RECOMMENDER_TIMEOUT_SECONDS", 60),
		RecommenderRPS:     atoi("RECOMMENDER_RPS", 5),
		ProfileCacheTTL:    seconds("PROFILE_CACHE_TTL_SECONDS", 300),
		SessionTTL:         seconds("SESSION_TTL_SECONDS", 86400),

		ReparseWorkers: atoi("REPARSE_WORKERS", 8),
		ReparseLimit:   atoi("REPARSE_LIMIT", 0),
	}
	if c.RecommenderTimeout <= 0 {
		c.RecommenderTimeout = 60 * time.Second
	}
	if c.ReparseWorkers <= 0 {
		c.ReparseWorkers = 1
	}
	c.HTTPTimeout = c.RecommenderTimeout + 5*time.Second
	if c.MySQLDSN == "" {
		log.Warn().Msg("MYSQL_DSN is empty; transcript archive disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
