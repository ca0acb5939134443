package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cast"
)

// Config holds all runtime settings. Values come from the environment with
// sensible defaults, then MergeFromDB applies overrides stored in the
// settings table. Quality and rate overrides take effect immediately;
// API keys are read by the provider clients at construction.
type Config struct {
	Port          int
	DatabasePath  string
	RedisAddr     string
	OMDbAPIKey    string
	TMDbAPIKey    string
	PosterQuality int // webp/jpeg quality for stored posters (1-100)
	ProviderRPS   float64
}

func Load() *Config {
	return &Config{
		Port:          envInt("PORT", 8085),
		DatabasePath:  env("DATABASE_PATH", "filmshelf.db"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		OMDbAPIKey:    env("OMDB_API_KEY", ""),
		TMDbAPIKey:    env("TMDB_API_KEY", ""),
		PosterQuality: envInt("POSTER_QUALITY", 60),
		ProviderRPS:   envFloat("PROVIDER_RPS", 4),
	}
}

// MergeFromDB overlays settings rows onto the config. Missing table or rows
// are not an error; the env/default values stand.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "omdb_api_key":
			c.OMDbAPIKey = value
		case "tmdb_api_key":
			c.TMDbAPIKey = value
		case "poster_quality":
			if q := cast.ToInt(value); q >= 1 && q <= 100 {
				c.PosterQuality = q
			}
		case "provider_rps":
			if r := cast.ToFloat64(value); r > 0 {
				c.ProviderRPS = r
			}
		}
	}
}

func (c *Config) OMDbEnabled() bool { return c.OMDbAPIKey != "" }
func (c *Config) TMDbEnabled() bool { return c.TMDbAPIKey != "" }

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
