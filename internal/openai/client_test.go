package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contentwizard/internal/config"
)

func testConfig(baseURL string) config.OpenAIConfig {
	return config.OpenAIConfig{
		BaseURL:     baseURL,
		Model:       "gpt-4-1106-preview",
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	}
}

func TestComplete_SendsModelKeyAndPrompt(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody chatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hello world"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	reply, err := client.Complete(context.Background(), "sk-abc", "write a post")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if reply != "hello world" {
		t.Fatalf("reply = %q", reply)
	}
	if gotAuth != "Bearer sk-abc" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody.Model != "gpt-4-1106-preview" {
		t.Fatalf("model = %q", gotBody.Model)
	}
	if gotBody.Temperature != 0.7 {
		t.Fatalf("temperature = %v", gotBody.Temperature)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "write a post" {
		t.Fatalf("messages = %+v", gotBody.Messages)
	}
}

func TestComplete_ProviderErrorMapsToAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Incorrect API key provided"},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Complete(context.Background(), "sk-bad", "prompt")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if apiErr.Message != "Incorrect API key provided" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestComplete_EmptyChoicesIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if _, err := client.Complete(context.Background(), "sk-abc", "prompt"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestComplete_EmptyKeyRejectedLocally(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:0"))
	if _, err := client.Complete(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
