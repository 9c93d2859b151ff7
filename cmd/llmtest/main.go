// Command llmtest exercises the configured model providers with a short
// questionnaire conversation. Run it after changing API keys or models to
// confirm both the primary and the fallback provider respond.
//
// Usage:
//
//	OPENAI_API_KEY=... GEMINI_API_KEY=... go run ./cmd/llmtest
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/knitec/iq-platform/internal/chat"
	appconfig "github.com/knitec/iq-platform/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req := chat.LLMRequest{
		System: []string{chat.DefaultSystemPrompt},
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: "Hi, I'm ready to start the installation questionnaire."},
			{Role: chat.RoleAssistant, Content: "Great, let's begin. What is the site address where the installation will take place?"},
			{Role: chat.RoleUser, Content: "123 Main St, Seattle, WA 98101."},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	}

	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Println("Model Provider Test")
	fmt.Println(rule)

	if cfg.OpenAIAPIKey != "" {
		fmt.Println("\n[1] Testing OpenAI...")
		client, err := chat.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			fmt.Printf("    failed to create OpenAI client: %v\n", err)
		} else {
			runProvider(ctx, "OpenAI", client, req)
		}
	} else {
		fmt.Println("\n[1] Skipping OpenAI test (OPENAI_API_KEY not set)")
	}

	if cfg.GeminiAPIKey != "" {
		fmt.Println("\n[2] Testing Gemini...")
		client, err := chat.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			fmt.Printf("    failed to create Gemini client: %v\n", err)
		} else {
			runProvider(ctx, "Gemini", client, req)
		}
	} else {
		fmt.Println("\n[2] Skipping Gemini test (GEMINI_API_KEY not set)")
	}

	fmt.Println("\n" + rule)
	fmt.Println("If both providers responded, the fallback chain is healthy.")
	fmt.Println("The server uses OpenAI first and falls back to Gemini on failure.")
}

func runProvider(ctx context.Context, name string, client chat.LLMClient, req chat.LLMRequest) {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Printf("    %s error: %v\n", name, err)
		return
	}
	fmt.Printf("    %s response (%v):\n", name, elapsed)
	fmt.Printf("    %s\n", resp.Text)
	fmt.Printf("    Tokens: in=%d, out=%d\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
}
