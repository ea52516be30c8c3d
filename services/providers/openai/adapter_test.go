package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/upb/inference-router/services/providers"
)

const chatResponse = `{
	"id": "chatcmpl-test123",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "This is a test response"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
}`

func newTestAdapter(t *testing.T, server *httptest.Server, maxRetries int) *Adapter {
	t.Helper()

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL
	cfg.MaxRetries = maxRetries

	adapter, err := NewAdapter(cfg)
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	return adapter
}

func TestNewAdapter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.APIKey = "test-key"

		adapter, err := NewAdapter(cfg)
		if err != nil {
			t.Fatalf("NewAdapter() error = %v", err)
		}

		if adapter.Name() != ProviderName {
			t.Errorf("Name() = %s, want %s", adapter.Name(), ProviderName)
		}

		desc := adapter.Descriptor()
		if desc.Model != defaultModel {
			t.Errorf("Model = %s, want %s", desc.Model, defaultModel)
		}
		if desc.CostPerMillionUnits != 0.60 || desc.EstimatedLatencyMs != 2500 {
			t.Errorf("unexpected descriptor: %+v", desc)
		}
		if err := desc.Validate(); err != nil {
			t.Errorf("default descriptor invalid: %v", err)
		}
	})

	t.Run("custom name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.APIKey = "test-key"
		cfg.Name = "groq"

		adapter, err := NewAdapter(cfg)
		if err != nil {
			t.Fatalf("NewAdapter() error = %v", err)
		}
		if adapter.Name() != "groq" {
			t.Errorf("Name() = %s, want groq", adapter.Name())
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		if _, err := NewAdapter(DefaultConfig()); err == nil {
			t.Error("Expected error but got none")
		}
	})
}

func TestAdapter_Complete(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server, 0)

	temp := 0.2
	req := &providers.CompletionRequest{
		Kind:           providers.KindFreeformCompletion,
		Prompt:         "Hello",
		System:         "Be brief",
		Temperature:    &temp,
		MaxOutputUnits: 100,
	}

	resp, err := adapter.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if resp.Text != "This is a test response" {
		t.Errorf("Unexpected response content: %s", resp.Text)
	}
	if resp.Units() != 30 {
		t.Errorf("Units() = %d, want 30", resp.Units())
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %s, want stop", resp.FinishReason)
	}

	if captured["model"] != defaultModel {
		t.Errorf("model = %v, want %s", captured["model"], defaultModel)
	}
	if captured["max_tokens"] != float64(100) {
		t.Errorf("max_tokens = %v, want 100", captured["max_tokens"])
	}
	if captured["temperature"] != 0.2 {
		t.Errorf("temperature = %v, want 0.2", captured["temperature"])
	}

	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if first, _ := messages[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
	if _, ok := captured["response_format"]; ok {
		t.Error("freeform requests must not set response_format")
	}
}

func TestAdapter_Complete_Structured(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(strings.Replace(chatResponse, "This is a test response", `{\"score\": 7}`, 1)))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server, 0)

	req := &providers.CompletionRequest{
		Kind:   providers.KindStructuredQualification,
		Prompt: "Qualify this lead",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"score": map[string]any{"type": "integer"}},
		},
	}

	resp, err := adapter.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != `{"score": 7}` {
		t.Errorf("Text = %s", resp.Text)
	}

	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("response_format = %v, want json_schema", captured["response_format"])
	}
	schema, _ := format["json_schema"].(map[string]any)
	if schema["name"] != structuredResultName {
		t.Errorf("json_schema.name = %v", schema["name"])
	}
}

func TestAdapter_Complete_Error(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": {"message": "Invalid request", "type": "invalid_request_error", "code": "bad"}}`))
			}))
			defer server.Close()

			adapter := newTestAdapter(t, server, 0)

			_, err := adapter.Complete(context.Background(), &providers.CompletionRequest{
				Kind:   providers.KindFreeformCompletion,
				Prompt: "test",
			})
			if err == nil {
				t.Fatal("Expected error but got none")
			}

			var provErr *providers.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("Expected ProviderError, got %T", err)
			}
			if provErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", provErr.StatusCode, tt.status)
			}
			if provErr.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", provErr.Retryable, tt.wantRetryable)
			}
			if provErr.Provider != ProviderName {
				t.Errorf("Provider = %s", provErr.Provider)
			}
		})
	}
}

func TestAdapter_Complete_SDKRetries(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.Header().Set("Retry-After-Ms", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server, 2)

	_, err := adapter.Complete(context.Background(), &providers.CompletionRequest{
		Kind:   providers.KindFreeformCompletion,
		Prompt: "test",
	})
	if err != nil {
		t.Fatalf("Expected success after retry, got error: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestAdapter_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "x", "object": "chat.completion", "model": "gpt-4o-mini", "choices": [], "usage": {}}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server, 0)

	_, err := adapter.Complete(context.Background(), &providers.CompletionRequest{
		Kind:   providers.KindFreeformCompletion,
		Prompt: "test",
	})
	if !providers.IsRetryable(err) {
		t.Errorf("empty choices error = %v, want retryable provider error", err)
	}
}

func TestAdapter_Complete_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := adapter.Complete(ctx, &providers.CompletionRequest{
		Kind:   providers.KindFreeformCompletion,
		Prompt: "test",
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Complete() error = %v, want deadline exceeded", err)
	}
}
