package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	BindAddress string
	DataDir     string
	JWTSecret   string

	// Model collaborator settings.
	OpenRouterKey  string
	AgentModel     string
	ModelTimeout   time.Duration
	AgentSummarize bool

	DevMode bool
}

func Load() *Config {
	// Local .env for development; missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         8080,
		BindAddress:  "127.0.0.1",
		DataDir:      resolveDataDir(),
		JWTSecret:    getEnv("TIDYTASK_JWT_SECRET", ""),
		AgentModel:   "openai/gpt-4o-mini",
		ModelTimeout: 60 * time.Second,
		DevMode:      getEnv("TIDYTASK_DEV", "false") == "true",
	}

	if p := getEnv("TIDYTASK_PORT", ""); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			cfg.Port = port
		}
	}
	if b := getEnv("TIDYTASK_BIND", ""); b != "" {
		cfg.BindAddress = b
	}
	if d := getEnv("TIDYTASK_DATA_DIR", ""); d != "" {
		cfg.DataDir = d
	}
	if k := getEnv("OPENROUTER_API_KEY", ""); k != "" {
		cfg.OpenRouterKey = k
	}
	if m := getEnv("TIDYTASK_AGENT_MODEL", ""); m != "" {
		cfg.AgentModel = m
	}
	if t := getEnv("TIDYTASK_MODEL_TIMEOUT", ""); t != "" {
		if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			cfg.ModelTimeout = time.Duration(secs) * time.Second
		}
	}
	// When true, the agent makes a second model call with the tool outcomes
	// and lets the model phrase the final reply. Off by default: the base
	// behavior answers after one round trip.
	cfg.AgentSummarize = getEnv("TIDYTASK_AGENT_SUMMARIZE", "false") == "true"

	return cfg
}

func resolveDataDir() string {
	// Resolve data dir relative to the executable, not the CWD
	exe, err := os.Executable()
	if err != nil {
		return "./data"
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "./data"
	}
	return filepath.Join(filepath.Dir(exe), "data")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
