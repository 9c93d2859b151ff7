package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.OpenAIModel != "gpt-4.1-nano" {
		t.Fatalf("expected default openai model, got %s", cfg.OpenAIModel)
	}
	if cfg.DataDir != "data/chats" {
		t.Fatalf("expected default data dir, got %s", cfg.DataDir)
	}
	if cfg.CredentialsPath != "config/credentials.yaml" {
		t.Fatalf("expected default credentials path, got %s", cfg.CredentialsPath)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no default CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ModelTimeout != 30*time.Second {
		t.Fatalf("expected default model timeout, got %s", cfg.ModelTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_DIR", "/var/lib/kniteciq/chats")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2")
	t.Setenv("MODEL_TIMEOUT", "45s")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DataDir != "/var/lib/kniteciq/chats" {
		t.Fatalf("expected data dir override, got %s", cfg.DataDir)
	}
	if cfg.OpenAIModel != "gpt-4.1-mini" {
		t.Fatalf("expected model override, got %s", cfg.OpenAIModel)
	}
	if cfg.GeminiAPIKey != "test-gemini-key" {
		t.Fatalf("expected gemini key override, got %s", cfg.GeminiAPIKey)
	}
	if cfg.RateLimitPerSecond != 2 {
		t.Fatalf("expected rate limit override, got %d", cfg.RateLimitPerSecond)
	}
	if cfg.ModelTimeout != 45*time.Second {
		t.Fatalf("expected model timeout override, got %s", cfg.ModelTimeout)
	}
}

func TestLoadCORSOriginsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.knitec.com, https://staging.knitec.com ,")
	cfg := Load()
	want := []string{"https://app.knitec.com", "https://staging.knitec.com"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Fatalf("expected origins %v, got %v", want, cfg.CORSAllowedOrigins)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SECOND", "not-a-number")
	t.Setenv("MODEL_TIMEOUT", "soon")
	cfg := Load()
	if cfg.RateLimitPerSecond != 5 {
		t.Fatalf("expected fallback rate limit, got %d", cfg.RateLimitPerSecond)
	}
	if cfg.ModelTimeout != 30*time.Second {
		t.Fatalf("expected fallback model timeout, got %s", cfg.ModelTimeout)
	}
}
