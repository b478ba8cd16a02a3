package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr        string
	DBDSN           string
	RedisAddr       string
	CacheTTL        time.Duration
	LogLevel        string
	ShutdownTimeout time.Duration

	CardVisibleCount   int
	CardSwipeThreshold float64
	CardInfinite       bool
	CardStackFrom      string
}

func defaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":1234")
	v.SetDefault("DB_DSN", "match.db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "5s")
	v.SetDefault("CARD_VISIBLE_COUNT", 3)
	v.SetDefault("CARD_SWIPE_THRESHOLD", 0.3)
	v.SetDefault("CARD_INFINITE", false)
	v.SetDefault("CARD_STACK_FROM", "top")
}

// Load 先读 .env，再读环境变量，缺省值见 defaults
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file is available for loading, falling back to environment")
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		DBDSN:              v.GetString("DB_DSN"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		CacheTTL:           v.GetDuration("CACHE_TTL"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
		CardVisibleCount:   v.GetInt("CARD_VISIBLE_COUNT"),
		CardSwipeThreshold: v.GetFloat64("CARD_SWIPE_THRESHOLD"),
		CardInfinite:       v.GetBool("CARD_INFINITE"),
		CardStackFrom:      v.GetString("CARD_STACK_FROM"),
	}

	if cfg.CardVisibleCount < 1 {
		cfg.CardVisibleCount = 3
	}
	if cfg.CardSwipeThreshold <= 0 || cfg.CardSwipeThreshold > 1 {
		cfg.CardSwipeThreshold = 0.3
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	return cfg
}
