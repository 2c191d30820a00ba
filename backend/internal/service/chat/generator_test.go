package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubProvider struct {
	reply  string
	err    error
	panic  bool
	block  bool
	prompt Prompt
	calls  int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	s.calls++
	s.prompt = prompt
	if s.panic {
		panic("boom")
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func TestFallbackReply(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"What services do you offer?", "💼 I offer AI, full-stack web development, and mobile app solutions. Want details on any one?"},
		{"Can I HIRE you?", replyPricing},
		{"what is the price", replyPricing},
		{"how to contact you", replyContact},
		{"hello", replyGeneric},
		{"service price contact", replyServices},
		{"hire me, contact later", replyPricing},
	}
	for _, tc := range cases {
		if got := FallbackReply(tc.message); got != tc.want {
			t.Fatalf("FallbackReply(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestGenerateReply_NotConfigured(t *testing.T) {
	g := NewGenerator(nil, 0, nil)
	got := g.GenerateReply(context.Background(), "What services do you offer?", nil)
	if got != "💼 I offer AI, full-stack web development, and mobile app solutions. Want details on any one?" {
		t.Fatalf("unexpected reply %q", got)
	}
	if g.Enabled() {
		t.Fatalf("generator without provider must report disabled")
	}
}

func TestGenerateReply_ProviderSuccessTrimmed(t *testing.T) {
	p := &stubProvider{reply: "  Hi there!\n"}
	got := NewGenerator(p, time.Second, nil).GenerateReply(context.Background(), "hello", nil)
	if got != "Hi there!" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestGenerateReply_FailuresFallBack(t *testing.T) {
	cases := map[string]*stubProvider{
		"error":   {err: errors.New("quota exceeded")},
		"empty":   {reply: "   "},
		"panic":   {panic: true},
		"timeout": {block: true},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewGenerator(p, 20*time.Millisecond, nil)
			got := g.GenerateReply(context.Background(), "contact?", nil)
			if got != replyContact {
				t.Fatalf("expected contact fallback, got %q", got)
			}
			if p.calls != 1 {
				t.Fatalf("expected exactly one provider call, got %d", p.calls)
			}
		})
	}
}

func TestBuildPrompt_LastSixChronological(t *testing.T) {
	history := make([]Exchange, 0, 8)
	for i := 0; i < 8; i++ {
		history = append(history, Exchange{User: fmt.Sprintf("u%d", i), AI: fmt.Sprintf("a%d", i)})
	}
	prompt := BuildPrompt("now", history)

	if prompt.System != SystemPrompt || !strings.Contains(prompt.System, "portfolio website") {
		t.Fatalf("missing system instruction")
	}
	if len(prompt.Turns) != 13 {
		t.Fatalf("expected 13 turns, got %d", len(prompt.Turns))
	}
	if prompt.Turns[0] != (Turn{Role: RoleUser, Text: "u2"}) || prompt.Turns[1] != (Turn{Role: RoleAssistant, Text: "a2"}) {
		t.Fatalf("expected history to start at the third exchange, got %+v", prompt.Turns[:2])
	}
	if last := prompt.Turns[12]; last != (Turn{Role: RoleUser, Text: "now"}) {
		t.Fatalf("expected new message last, got %+v", last)
	}
}

func TestGenerateReply_PassesPrompt(t *testing.T) {
	p := &stubProvider{reply: "ok"}
	NewGenerator(p, time.Second, nil).GenerateReply(context.Background(), "q", []Exchange{{User: "hi", AI: "hello"}})
	if len(p.prompt.Turns) != 3 || p.prompt.Turns[2].Text != "q" {
		t.Fatalf("unexpected prompt %+v", p.prompt)
	}
}
