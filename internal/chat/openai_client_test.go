package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type recordedCompletionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) (*OpenAIClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIClientWithConfig(cfg, "gpt-4.1-nano"), srv
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got recordedCompletionRequest
	client, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "  What is the site address?  "},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 42, CompletionTokens: 7, TotalTokens: 49},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	resp, err := client.Complete(context.Background(), LLMRequest{
		System: []string{"You run a questionnaire."},
		Messages: []Message{
			{Role: RoleUser, Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Text != "What is the site address?" {
		t.Errorf("expected a trimmed reply, got %q", resp.Text)
	}
	if resp.StopReason != "stop" {
		t.Errorf("unexpected stop reason %q", resp.StopReason)
	}
	if resp.Usage.InputTokens != 42 || resp.Usage.OutputTokens != 7 || resp.Usage.TotalTokens != 49 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	if got.Model != "gpt-4.1-nano" {
		t.Errorf("expected the configured model, got %q", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected system plus user message, got %v", got.Messages)
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "You run a questionnaire." {
		t.Errorf("system prompt not first: %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "Hello" {
		t.Errorf("user message malformed: %+v", got.Messages[1])
	}
}

func TestOpenAIClient_RequestModelOverride(t *testing.T) {
	var got recordedCompletionRequest
	client, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: "ok"},
			}},
		})
	})

	_, err := client.Complete(context.Background(), LLMRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("expected the per-request model, got %q", got.Model)
	}
}

func TestOpenAIClient_ServerError(t *testing.T) {
	client, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	})

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []Message{{Role: RoleUser, Content: "Hello"}},
	})
	if err == nil {
		t.Fatal("expected an error from a failing server")
	}
	if !strings.Contains(err.Error(), "openai completion failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenAIClient_RequiresAMessage(t *testing.T) {
	called := false
	client, _ := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Complete(context.Background(), LLMRequest{
		System:   []string{"   "},
		Messages: []Message{{Role: RoleUser, Content: "  "}},
	})
	if err == nil {
		t.Fatal("expected an error when every message is blank")
	}
	if called {
		t.Error("no request should be sent when there is nothing to say")
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient("", "gpt-4.1-nano"); err == nil {
		t.Fatal("expected an error for a missing api key")
	}
	if _, err := NewOpenAIClient("  ", ""); err == nil {
		t.Fatal("expected an error for a blank api key")
	}
}
