package main

import (
	"testing"

	"github.com/knitec/iq-platform/internal/chat"
	appconfig "github.com/knitec/iq-platform/internal/config"
	"github.com/knitec/iq-platform/pkg/logging"
)

func TestBuildLLMClientOpenAIOnly(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{
		OpenAIAPIKey: "test-key",
		OpenAIModel:  "gpt-4.1-nano",
	}

	llm := buildLLMClient(cfg, logger)
	if _, ok := llm.(*chat.OpenAIClient); !ok {
		t.Fatalf("expected *chat.OpenAIClient, got %T", llm)
	}
}

func TestBuildLLMClientWithFallback(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{
		OpenAIAPIKey: "test-key",
		OpenAIModel:  "gpt-4.1-nano",
		GeminiAPIKey: "test-key",
		GeminiModel:  "gemini-2.5-flash",
	}

	llm := buildLLMClient(cfg, logger)
	if _, ok := llm.(*chat.FallbackLLMClient); !ok {
		t.Fatalf("expected *chat.FallbackLLMClient, got %T", llm)
	}
}

func TestBuildLLMClientGeminiOnly(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{
		GeminiAPIKey: "test-key",
		GeminiModel:  "gemini-2.5-flash",
	}

	llm := buildLLMClient(cfg, logger)
	if _, ok := llm.(*chat.GeminiClient); !ok {
		t.Fatalf("expected *chat.GeminiClient, got %T", llm)
	}
}
