// Package config loads SPIRAL's runtime tunables (spec.md ambient stack):
// step budgets, yield interval, default scheduler mode, and resolver
// depth/cache settings. Grounded on the teacher's own two config layers —
// the simple env-only infrastructure/config.Load() for server flags, and
// the yaml.v3 + env-override AppConfig singleton used by its richer
// deployment — generalized here into one overlay (code defaults, then the
// yaml file, then env; each later layer wins over the earlier ones).
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable a SPIRAL evaluation session reads at
// startup; nothing here is mutated once a session is running.
type Config struct {
	LogLevel string `yaml:"log_level"`

	EvalStepBudget   int64 `yaml:"eval_step_budget"`
	SchedulerMode    string `yaml:"scheduler_mode"`
	YieldInterval    int64 `yaml:"yield_interval"`
	GlobalMaxSteps   int64 `yaml:"global_max_steps"`

	ResolverMaxDepth int    `yaml:"resolver_max_depth"`
	StdlibDir        string `yaml:"stdlib_dir"`

	StreamAddr string `yaml:"stream_addr"`

	DatabaseDSN string `yaml:"database_dsn"`
}

func defaults() Config {
	return Config{
		LogLevel:         "info",
		EvalStepBudget:   1_000_000,
		SchedulerMode:    "eager",
		YieldInterval:    100,
		GlobalMaxSteps:   1_000_000,
		ResolverMaxDepth: 10,
		StdlibDir:        "stdlib",
		StreamAddr:       ":7777",
	}
}

// Load builds a Config by layering, in increasing priority: built-in
// defaults, an optional YAML file (path from $SPIRAL_CONFIG, default
// "./spiral.config.yml"), then environment variable overrides.
func Load() *Config {
	cfg := defaults()

	path := getEnv("SPIRAL_CONFIG", "./spiral.config.yml")
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &cfg)
	}

	cfg.LogLevel = getEnv("SPIRAL_LOG_LEVEL", cfg.LogLevel)
	cfg.SchedulerMode = getEnv("SPIRAL_SCHEDULER_MODE", cfg.SchedulerMode)
	cfg.StdlibDir = getEnv("SPIRAL_STDLIB_DIR", cfg.StdlibDir)
	cfg.StreamAddr = getEnv("SPIRAL_STREAM_ADDR", cfg.StreamAddr)
	cfg.DatabaseDSN = getEnv("SPIRAL_DATABASE_DSN", cfg.DatabaseDSN)
	cfg.EvalStepBudget = getEnvInt64("SPIRAL_EVAL_STEP_BUDGET", cfg.EvalStepBudget)
	cfg.YieldInterval = getEnvInt64("SPIRAL_YIELD_INTERVAL", cfg.YieldInterval)
	cfg.GlobalMaxSteps = getEnvInt64("SPIRAL_GLOBAL_MAX_STEPS", cfg.GlobalMaxSteps)
	cfg.ResolverMaxDepth = int(getEnvInt64("SPIRAL_RESOLVER_MAX_DEPTH", int64(cfg.ResolverMaxDepth)))

	return &cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
