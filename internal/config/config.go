// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/catalog"
	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/store"
	"github.com/litescript/ls-comets/internal/visibility"
)

type Config struct {
	Ephemeris  EphemerisConfig
	Catalog    CatalogConfig
	Cache      CacheConfig
	Visibility VisibilityConfig
	Server     ServerConfig
	LogLevel   string
}

type EphemerisConfig struct {
	Mode        ephem.Mode
	HorizonsURL string
}

type CatalogConfig struct {
	URL  string
	Path string // local CometEls.txt, preferred over URL when set
}

type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	Timeout       time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MemorySize    int
}

// StoreOptions converts the cache settings for store.New.
func (c CacheConfig) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Backend,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		MemoryTTL:     c.TTL,
		MemorySize:    c.MemorySize,
	}
}

type VisibilityConfig struct {
	CoarseStep  time.Duration
	FineStep    time.Duration
	MinCometAlt float64
	MaxSunAlt   float64
}

type ServerConfig struct {
	Addr           string
	WarmSchedule   string // cron expression, empty disables warm-up
	WatchComet     string
	WatchLocations []WatchLocation
	WatchZone      string
	WatchDays      int
}

// WatchLocation is a named observer the scheduler keeps warm.
type WatchLocation struct {
	Name     string
	Observer astro.Observer
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	mode, err := ephem.ParseMode(getEnv("LSC_EPHEM_MODE", "horizons"))
	if err != nil {
		return nil, err
	}

	watch, err := ParseWatchLocations(getEnv("WATCH_LOCATIONS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Ephemeris: EphemerisConfig{
			Mode:        mode,
			HorizonsURL: getEnv("HORIZONS_URL", ephem.HorizonsAPIURL),
		},
		Catalog: CatalogConfig{
			URL:  getEnv("MPC_COMETS_URL", catalog.DefaultURL),
			Path: getEnv("MPC_COMETS_PATH", ""),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", store.BackendMemory),
			TTL:           getEnvAsDuration("CACHE_TTL", visibility.DefaultCacheTTL),
			Timeout:       getEnvAsDuration("CACHE_TIMEOUT", visibility.DefaultCacheTimeout),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			MemorySize:    getEnvAsInt("CACHE_MEMORY_SIZE", 1024),
		},
		Visibility: VisibilityConfig{
			CoarseStep:  getEnvAsDuration("COARSE_STEP", visibility.DefaultCoarseStep),
			FineStep:    getEnvAsDuration("FINE_STEP", visibility.DefaultFineStep),
			MinCometAlt: getEnvAsFloat("MIN_COMET_ALT", visibility.DefaultMinCometAlt),
			MaxSunAlt:   getEnvAsFloat("MAX_SUN_ALT", visibility.DefaultMaxSunAlt),
		},
		Server: ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":8080"),
			WarmSchedule:   getEnv("WARM_SCHEDULE", "0 18 * * *"),
			WatchComet:     getEnv("WATCH_COMET", ""),
			WatchLocations: watch,
			WatchZone:      getEnv("WATCH_TZ", "UTC"),
			WatchDays:      getEnvAsInt("WATCH_DAYS", 7),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Visibility.FineStep <= 0 || cfg.Visibility.CoarseStep%cfg.Visibility.FineStep != 0 {
		return nil, fmt.Errorf("COARSE_STEP %v must be a multiple of FINE_STEP %v",
			cfg.Visibility.CoarseStep, cfg.Visibility.FineStep)
	}
	return cfg, nil
}

// ParseWatchLocations parses "name=lat,lon;name=lat,lon", e.g.
// "bowling-green=36.96 N,86.49 W". Names are optional.
func ParseWatchLocations(s string) ([]WatchLocation, error) {
	var out []WatchLocation
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var name string
		if i := strings.Index(part, "="); i >= 0 {
			name = strings.TrimSpace(part[:i])
			part = part[i+1:]
		}

		lat, lon, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("watch location %q: want lat,lon", part)
		}
		obs, err := astro.ParseObserver(lat, lon)
		if err != nil {
			return nil, fmt.Errorf("watch location %q: %w", part, err)
		}
		obs.Name = name
		out = append(out, WatchLocation{Name: name, Observer: obs})
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
