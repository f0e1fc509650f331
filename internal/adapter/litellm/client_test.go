package litellm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/crmlite/internal/adapter/litellm"
	"github.com/Strob0t/crmlite/internal/port/llm"
	"github.com/Strob0t/crmlite/internal/resilience"
)

var _ llm.Generator = (*litellm.Client)(nil)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth: %q", auth)
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Model != "openai/gpt-4o-mini" {
			t.Fatalf("expected default model, got %q", body.Model)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Content != "hello" {
			t.Fatalf("unexpected messages: %+v", body.Messages)
		}
		if body.ResponseFormat == nil || body.ResponseFormat.Type != "json_object" {
			t.Fatalf("expected json_object response format, got %+v", body.ResponseFormat)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "{\"summary\":\"ok\"}"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5}
		}`))
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "test-key", "openai/gpt-4o-mini")
	resp, err := client.Generate(context.Background(), llm.Request{System: "sys", Prompt: "hello", JSON: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != `{"summary":"ok"}` {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.TokensIn != 12 || resp.TokensOut != 5 {
		t.Fatalf("unexpected usage: in=%d out=%d", resp.TokensIn, resp.TokensOut)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "", "m")
	_, err := client.Generate(context.Background(), llm.Request{Prompt: "x"})
	if !errors.Is(err, litellm.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "", "m")
	if _, err := client.Generate(context.Background(), llm.Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestGenerateBreakerOpenSkipsCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "", "m")
	client.SetBreaker(resilience.NewBreaker("litellm", 1, time.Hour))

	if _, err := client.Generate(context.Background(), llm.Request{Prompt: "x"}); err == nil {
		t.Fatal("expected first call to fail")
	}
	_, err := client.Generate(context.Background(), llm.Request{Prompt: "x"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/liveliness" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`"I'm alive!"`))
	}))
	defer srv.Close()

	healthy, err := litellm.NewClient(srv.URL, "test-key", "m").Health(context.Background())
	if err != nil || !healthy {
		t.Fatalf("expected healthy, got %v %v", healthy, err)
	}
}

func TestHealthUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	healthy, _ := litellm.NewClient(srv.URL, "test-key", "m").Health(context.Background())
	if healthy {
		t.Fatal("expected unhealthy")
	}
}

func TestHealthFailuresDoNotOpenBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/liveliness" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker("litellm", 1, time.Hour)
	client := litellm.NewClient(srv.URL, "", "m")
	client.SetBreaker(breaker)

	for range 3 {
		if healthy, _ := client.Health(context.Background()); healthy {
			t.Fatal("expected unhealthy")
		}
	}
	if breaker.State() != resilience.StateClosed {
		t.Fatalf("health polls must not trip the breaker, state %v", breaker.State())
	}
	if _, err := client.Generate(context.Background(), llm.Request{Prompt: "x"}); err != nil {
		t.Fatalf("generate after failed health polls: %v", err)
	}
}
