package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is built once at startup and handed down explicitly; nothing in the
// tree reads the environment lazily after boot.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisAddr       string
	JWTSecret       string
	StrictSaleItems bool
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load reads configuration from the environment with sane defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("JWT_SECRET", "super-secret-key") // override in prod
	v.SetDefault("LEDGER_STRICT_ITEMS", true)
	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 3)

	cfg := Config{
		Addr:            v.GetString("ADDR"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		StrictSaleItems: v.GetBool("LEDGER_STRICT_ITEMS"),
		RateLimitRPS:    v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:  v.GetInt("RATE_LIMIT_BURST"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("environment variable DATABASE_URL not found")
	}
	return cfg, nil
}
