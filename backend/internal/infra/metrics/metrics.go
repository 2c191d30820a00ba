package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce       sync.Once
	chatReplies        *prometheus.CounterVec
	chatDuration       *prometheus.HistogramVec
	loginAttempts      *prometheus.CounterVec
	contactSubmissions *prometheus.CounterVec
	analyticsEvents    *prometheus.CounterVec
)

const namespaceMetrics = "portfolio"

// MustRegister 初始化 Prometheus 指标并注册 Go 运行时采样器，需在应用启动阶段调用一次。
func MustRegister() {
	registerOnce.Do(func() {
		chatReplies = registerCounterVec(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespaceMetrics,
				Subsystem: "chat",
				Name:      "replies_total",
				Help:      "AI 对话回复次数，按来源（ai/fallback）统计。",
			},
			[]string{"source"},
		))
		chatDuration = registerHistogramVec(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespaceMetrics,
				Subsystem: "chat",
				Name:      "provider_duration_seconds",
				Help:      "模型调用耗时，按提供方与结果区分。",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "status"},
		))
		loginAttempts = registerCounterVec(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespaceMetrics,
				Subsystem: "admin",
				Name:      "login_attempts_total",
				Help:      "管理员登录尝试，按结果统计。",
			},
			[]string{"result"},
		))
		contactSubmissions = registerCounterVec(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespaceMetrics,
				Subsystem: "contact",
				Name:      "submissions_total",
				Help:      "联系表单提交次数，按结果统计。",
			},
			[]string{"result"},
		))
		analyticsEvents = registerCounterVec(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespaceMetrics,
				Subsystem: "analytics",
				Name:      "events_total",
				Help:      "写入的分析事件数量。",
			},
			[]string{"event"},
		))

		registerRuntimeCollectors()
	})
}

// RecordChatReply 记录一次回复的来源。
func RecordChatReply(source string) {
	if chatReplies == nil {
		return
	}
	chatReplies.WithLabelValues(normalizeLabel(source, "unknown")).Inc()
}

// ObserveProvider 记录模型调用耗时。
func ObserveProvider(provider, status string, duration time.Duration) {
	if chatDuration == nil {
		return
	}
	chatDuration.WithLabelValues(normalizeLabel(provider, "unspecified"), normalizeLabel(status, "unknown")).Observe(duration.Seconds())
}

// RecordLogin 记录登录结果：success、invalid、locked、missing、error。
func RecordLogin(result string) {
	if loginAttempts == nil {
		return
	}
	loginAttempts.WithLabelValues(normalizeLabel(result, "unknown")).Inc()
}

// RecordContact 记录联系表单结果。
func RecordContact(result string) {
	if contactSubmissions == nil {
		return
	}
	contactSubmissions.WithLabelValues(normalizeLabel(result, "unknown")).Inc()
}

// RecordAnalytics 记录分析事件。事件名由客户端提交，只保留固定几类以控制标签基数。
func RecordAnalytics(event string) {
	if analyticsEvents == nil {
		return
	}
	analyticsEvents.WithLabelValues(eventLabel(event)).Inc()
}

func eventLabel(event string) string {
	switch event := strings.TrimSpace(event); event {
	case "page_view", "contact_form", "ai_chat", "click":
		return event
	case "":
		return "unknown"
	default:
		return "other"
	}
}

func normalizeLabel(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}

func registerHistogramVec(vec *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}

func registerRuntimeCollectors() {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := prometheus.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
