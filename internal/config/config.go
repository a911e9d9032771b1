package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for linksight.
type Config struct {
	Data      DataConfig
	Detection DetectionConfig
	Cache     CacheConfig
	Store     StoreConfig
	Analysis  AnalysisConfig
}

type DataConfig struct {
	// Dir holds Entities.csv, site_grades.csv, and KPI dumps.
	Dir string
}

type DetectionConfig struct {
	Trees       int
	Seed        int64
	MinSamples  int
	Sensitivity float64
}

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

type StoreConfig struct {
	// Dir is the filesystem model store root.
	Dir string
	// RedisURL switches the model store to Redis when set.
	RedisURL string
}

type AnalysisConfig struct {
	LookbackHours        int
	WarningGrade         float64
	CriticalGrade        float64
	MinLinksForPattern   int
	DegradationThreshold float64
	InstabilityThreshold float64
}

// Load reads configuration from environment variables and returns a
// validated Config. Returns an error with a descriptive message if any
// value is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Data: DataConfig{
			Dir: envString("LINKSIGHT_DATA_DIR", "./data"),
		},
		Detection: DetectionConfig{
			Trees:       envInt("LINKSIGHT_TREES", 100),
			Seed:        int64(envInt("LINKSIGHT_SEED", 42)),
			MinSamples:  envInt("LINKSIGHT_MIN_SAMPLES", 10),
			Sensitivity: envFloat("LINKSIGHT_SENSITIVITY", 0.95),
		},
		Cache: CacheConfig{
			TTL:        envDuration("LINKSIGHT_CACHE_TTL", 60*time.Minute),
			MaxEntries: envInt("LINKSIGHT_CACHE_MAX_ENTRIES", 10),
		},
		Store: StoreConfig{
			Dir:      envString("LINKSIGHT_MODEL_DIR", "./models"),
			RedisURL: os.Getenv("LINKSIGHT_REDIS_URL"),
		},
		Analysis: AnalysisConfig{
			LookbackHours:        envInt("LINKSIGHT_LOOKBACK_HOURS", 24),
			WarningGrade:         envFloat("LINKSIGHT_WARNING_GRADE", 7.0),
			CriticalGrade:        envFloat("LINKSIGHT_CRITICAL_GRADE", 6.0),
			MinLinksForPattern:   envInt("LINKSIGHT_MIN_LINKS_FOR_PATTERN", 2),
			DegradationThreshold: envFloat("LINKSIGHT_DEGRADATION_THRESHOLD", 0.2),
			InstabilityThreshold: envFloat("LINKSIGHT_INSTABILITY_THRESHOLD", 0.3),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Detection.Trees <= 0 {
		return fmt.Errorf("LINKSIGHT_TREES must be positive, got %d", c.Detection.Trees)
	}
	if c.Detection.MinSamples < 2 {
		return fmt.Errorf("LINKSIGHT_MIN_SAMPLES must be at least 2, got %d", c.Detection.MinSamples)
	}
	if c.Detection.Sensitivity <= 0 || c.Detection.Sensitivity > 1 {
		return fmt.Errorf("LINKSIGHT_SENSITIVITY must be in (0, 1], got %v", c.Detection.Sensitivity)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("LINKSIGHT_CACHE_TTL must be positive, got %v", c.Cache.TTL)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("LINKSIGHT_CACHE_MAX_ENTRIES must be positive, got %d", c.Cache.MaxEntries)
	}

	if c.Store.RedisURL != "" && !strings.HasPrefix(c.Store.RedisURL, "redis://") && !strings.HasPrefix(c.Store.RedisURL, "rediss://") {
		return fmt.Errorf("LINKSIGHT_REDIS_URL must start with redis:// or rediss://, got %q", c.Store.RedisURL)
	}

	if c.Analysis.LookbackHours <= 0 {
		return fmt.Errorf("LINKSIGHT_LOOKBACK_HOURS must be positive, got %d", c.Analysis.LookbackHours)
	}
	if c.Analysis.WarningGrade < c.Analysis.CriticalGrade {
		return fmt.Errorf("LINKSIGHT_WARNING_GRADE (%v) must not be below LINKSIGHT_CRITICAL_GRADE (%v)",
			c.Analysis.WarningGrade, c.Analysis.CriticalGrade)
	}
	if c.Analysis.MinLinksForPattern < 1 {
		return fmt.Errorf("LINKSIGHT_MIN_LINKS_FOR_PATTERN must be at least 1, got %d", c.Analysis.MinLinksForPattern)
	}
	if c.Analysis.DegradationThreshold < 0 || c.Analysis.DegradationThreshold > 1 {
		return fmt.Errorf("LINKSIGHT_DEGRADATION_THRESHOLD must be in [0, 1], got %v", c.Analysis.DegradationThreshold)
	}
	if c.Analysis.InstabilityThreshold < 0 || c.Analysis.InstabilityThreshold > 1 {
		return fmt.Errorf("LINKSIGHT_INSTABILITY_THRESHOLD must be in [0, 1], got %v", c.Analysis.InstabilityThreshold)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
