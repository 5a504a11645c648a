package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear env vars that could interfere with default values. Setting to
	// empty string is sufficient: the override checks use != "" so empty
	// values are treated the same as unset.
	for _, key := range []string{
		"TIDYTASK_PORT",
		"TIDYTASK_BIND",
		"TIDYTASK_DATA_DIR",
		"TIDYTASK_JWT_SECRET",
		"TIDYTASK_AGENT_MODEL",
		"TIDYTASK_MODEL_TIMEOUT",
		"TIDYTASK_AGENT_SUMMARIZE",
		"TIDYTASK_DEV",
		"OPENROUTER_API_KEY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.BindAddress != "127.0.0.1" {
		t.Errorf("expected default bind address 127.0.0.1, got %s", cfg.BindAddress)
	}
	if cfg.AgentModel != "openai/gpt-4o-mini" {
		t.Errorf("expected default agent model openai/gpt-4o-mini, got %s", cfg.AgentModel)
	}
	if cfg.ModelTimeout != 60*time.Second {
		t.Errorf("expected default model timeout 60s, got %v", cfg.ModelTimeout)
	}
	if cfg.AgentSummarize {
		t.Error("expected agent summarize off by default")
	}
	if cfg.DevMode {
		t.Error("expected default dev mode false")
	}
	if cfg.DataDir == "" {
		t.Error("expected DataDir to be non-empty")
	}
}

func TestLoadPortOverride(t *testing.T) {
	t.Setenv("TIDYTASK_PORT", "9090")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
}

func TestLoadInvalidPortFallsBackToDefault(t *testing.T) {
	t.Setenv("TIDYTASK_PORT", "not-a-number")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080 for invalid port, got %d", cfg.Port)
	}
}

func TestLoadModelTimeoutOverride(t *testing.T) {
	t.Setenv("TIDYTASK_MODEL_TIMEOUT", "15")

	cfg := Load()

	if cfg.ModelTimeout != 15*time.Second {
		t.Errorf("expected model timeout 15s, got %v", cfg.ModelTimeout)
	}
}

func TestLoadInvalidModelTimeoutFallsBackToDefault(t *testing.T) {
	t.Setenv("TIDYTASK_MODEL_TIMEOUT", "-3")

	cfg := Load()

	if cfg.ModelTimeout != 60*time.Second {
		t.Errorf("expected default model timeout 60s, got %v", cfg.ModelTimeout)
	}
}

func TestLoadAgentSummarizeTrue(t *testing.T) {
	t.Setenv("TIDYTASK_AGENT_SUMMARIZE", "true")

	cfg := Load()

	if !cfg.AgentSummarize {
		t.Error("expected agent summarize true")
	}
}

func TestLoadAgentSummarizeInvalidIsFalse(t *testing.T) {
	t.Setenv("TIDYTASK_AGENT_SUMMARIZE", "yes")

	cfg := Load()

	if cfg.AgentSummarize {
		t.Error("expected agent summarize false for non-'true' value")
	}
}

func TestLoadAllOverrides(t *testing.T) {
	t.Setenv("TIDYTASK_PORT", "8888")
	t.Setenv("TIDYTASK_BIND", "0.0.0.0")
	t.Setenv("TIDYTASK_DATA_DIR", "/tmp/tidytask-test")
	t.Setenv("TIDYTASK_JWT_SECRET", "secret123")
	t.Setenv("TIDYTASK_AGENT_MODEL", "openai/gpt-4o")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("TIDYTASK_DEV", "true")

	cfg := Load()

	if cfg.Port != 8888 {
		t.Errorf("expected port 8888, got %d", cfg.Port)
	}
	if cfg.BindAddress != "0.0.0.0" {
		t.Errorf("expected bind 0.0.0.0, got %s", cfg.BindAddress)
	}
	if cfg.DataDir != "/tmp/tidytask-test" {
		t.Errorf("expected data dir /tmp/tidytask-test, got %s", cfg.DataDir)
	}
	if cfg.JWTSecret != "secret123" {
		t.Errorf("expected JWT secret secret123, got %s", cfg.JWTSecret)
	}
	if cfg.AgentModel != "openai/gpt-4o" {
		t.Errorf("expected agent model openai/gpt-4o, got %s", cfg.AgentModel)
	}
	if cfg.OpenRouterKey != "sk-or-test" {
		t.Errorf("expected OpenRouter key sk-or-test, got %s", cfg.OpenRouterKey)
	}
	if !cfg.DevMode {
		t.Error("expected dev mode true")
	}
}
