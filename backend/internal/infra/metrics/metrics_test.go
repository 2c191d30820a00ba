package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue 从默认注册表中读取指定标签的计数值。
func counterValue(t *testing.T, name, label, value string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecorders(t *testing.T) {
	MustRegister()
	MustRegister()

	before := counterValue(t, "portfolio_chat_replies_total", "source", "fallback")
	RecordChatReply("fallback")
	if got := counterValue(t, "portfolio_chat_replies_total", "source", "fallback"); got != before+1 {
		t.Fatalf("expected fallback counter %v, got %v", before+1, got)
	}

	RecordLogin("locked")
	if counterValue(t, "portfolio_admin_login_attempts_total", "result", "locked") < 1 {
		t.Fatalf("expected locked login to be recorded")
	}

	RecordAnalytics("some-random-name")
	if counterValue(t, "portfolio_analytics_events_total", "event", "other") < 1 {
		t.Fatalf("unknown events must be grouped under other")
	}

	ObserveProvider("gemini", "ok", 20*time.Millisecond)
	RecordContact("stored")
}

func TestEventLabel(t *testing.T) {
	cases := map[string]string{
		"page_view": "page_view",
		" ai_chat ": "ai_chat",
		"":          "unknown",
		"x":         "other",
	}
	for in, want := range cases {
		if got := eventLabel(in); got != want {
			t.Fatalf("eventLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
