package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio-backend/backend/internal/infra/model/deepseek"
	"portfolio-backend/backend/internal/infra/model/gemini"
)

type roleText struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Parts   []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func TestDeepSeekProvider_MapsPrompt(t *testing.T) {
	var got []roleText
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []roleText `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = body.Messages
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	client, err := deepseek.NewClient("sk", deepseek.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	prompt := BuildPrompt("now", []Exchange{{User: "hi", AI: "hello"}})
	reply, err := NewDeepSeekProvider(client).Generate(context.Background(), prompt)
	if err != nil || reply != "ok" {
		t.Fatalf("generate: %q %v", reply, err)
	}

	want := []string{"system", RoleUser, RoleAssistant, RoleUser}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), got)
	}
	for i, role := range want {
		if got[i].Role != role {
			t.Fatalf("message %d: expected role %s, got %s", i, role, got[i].Role)
		}
	}
	if got[3].Content != "now" {
		t.Fatalf("last message must be the new user turn, got %q", got[3].Content)
	}
}

func TestGeminiProvider_MapsAssistantToModel(t *testing.T) {
	var got []roleText
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []roleText `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = body.Contents
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := gemini.NewClient(ctx, "key", gemini.WithBaseURL(server.URL), gemini.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	prompt := BuildPrompt("now", []Exchange{{User: "hi", AI: "hello"}})
	reply, err := NewGeminiProvider(client).Generate(ctx, prompt)
	if err != nil || reply != "ok" {
		t.Fatalf("generate: %q %v", reply, err)
	}

	want := []string{"user", "model", "user"}
	if len(got) != len(want) {
		t.Fatalf("expected %d contents, got %+v", len(want), got)
	}
	for i, role := range want {
		if got[i].Role != role {
			t.Fatalf("content %d: expected role %s, got %s", i, role, got[i].Role)
		}
	}
}
