package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("expected authorization header, got %s", got)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request payload: %v", err)
		}
		if payload.Model != "deepseek-reasoner" {
			t.Errorf("expected configured model, got %q", payload.Model)
		}
		if len(payload.Messages) != 3 || payload.Messages[0].Role != "system" || payload.Messages[2].Role != "assistant" {
			t.Errorf("unexpected messages: %+v", payload.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"test-id","model":"deepseek-reasoner","choices":[{"index":0,"message":{"role":"assistant","content":"  Hello from DeepSeek!  "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client, err := NewClient("sk-test", WithBaseURL(server.URL), WithModel("deepseek-reasoner"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	got, err := client.Complete(context.Background(), "You are an assistant.", []Message{
		{Role: "user", Content: "Ping?"},
		{Role: "assistant", Content: "Pong."},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "Hello from DeepSeek!" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"authentication_error","code":"invalid_key"}}`))
	}))
	defer server.Close()

	client, err := NewClient("sk-bad", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *openai.APIError, got %v", err)
	}
	if apiErr.HTTPStatusCode != http.StatusUnauthorized || apiErr.Code != "invalid_key" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	client, _ := NewClient("sk", WithBaseURL(server.URL))
	if _, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatalf("expected error without api key")
	}
	client, err := NewClient("sk", WithModel(" "))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}
	if _, err := client.Complete(context.Background(), "sys", nil); err == nil {
		t.Fatalf("expected error without messages")
	}
}
