package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-backend/backend/internal/infra/metrics"

	"go.uber.org/zap"
)

const (
	// HistoryLimit 参与上下文的最近历史轮数。
	HistoryLimit = 6
	// DefaultTimeout 单次模型调用的截止时间。
	DefaultTimeout = 15 * time.Second

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemPrompt 描述助手的身份、职责与语气。
const SystemPrompt = `You are Rakib Golder's AI Assistant on his portfolio website.

Your role:
- Explain Rakib’s services, skills, and experience
- Help visitors understand how Rakib can help their project
- Encourage contact via email or contact form when appropriate

About Rakib:
- AI Engineer & Full Stack Developer
- Expertise: AI/ML, Web, Mobile Apps, Data Analytics
- Remote freelancer available worldwide
- Email: marakibgolder@gmail.com

Tone:
- Professional
- Friendly
- Clear
- Concise
- Helpful
- Use emojis occasionally

Rules:
- Answer questions on ANY topic - you are a general-purpose AI assistant
- Be helpful, accurate, and comprehensive
- If asked about Rakib, share relevant information`

// Exchange 是前端回传的一轮历史对话。
type Exchange struct {
	User string `json:"user"`
	AI   string `json:"ai"`
}

// Turn 是发送给模型的一条消息。
type Turn struct {
	Role string
	Text string
}

// Prompt 是一次模型调用的完整上下文，最后一条 Turn 总是本次用户消息。
type Prompt struct {
	System string
	Turns  []Turn
}

// Provider 抽象具体的模型服务。
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Generator 生成对话回复，模型不可用时退回固定文案，不向调用方返回错误。
type Generator struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

// NewGenerator provider 为 nil 表示未配置模型，所有请求直接使用兜底回复。
func NewGenerator(provider Provider, timeout time.Duration, logger *zap.SugaredLogger) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Generator{provider: provider, timeout: timeout, logger: logger}
}

// Enabled 报告是否配置了模型服务。
func (g *Generator) Enabled() bool {
	return g != nil && g.provider != nil
}

// GenerateReply 返回模型回复或兜底回复。
func (g *Generator) GenerateReply(ctx context.Context, message string, history []Exchange) string {
	if !g.Enabled() {
		metrics.RecordChatReply("fallback")
		return FallbackReply(message)
	}

	start := time.Now()
	reply, err := g.call(ctx, BuildPrompt(message, history))
	status := "ok"
	if err == nil && reply == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		status = "error"
	}
	metrics.ObserveProvider(g.provider.Name(), status, time.Since(start))

	if err != nil {
		g.logger.Warnw("ai provider failed, using fallback", "provider", g.provider.Name(), "error", err)
		metrics.RecordChatReply("fallback")
		return FallbackReply(message)
	}
	metrics.RecordChatReply("ai")
	return reply
}

// call 带超时调用 provider，panic 转为错误。
func (g *Generator) call(ctx context.Context, prompt Prompt) (reply string, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	text, err := g.provider.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt 按时间顺序拼接最近 HistoryLimit 轮历史与本次消息。
func BuildPrompt(message string, history []Exchange) Prompt {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	turns := make([]Turn, 0, len(history)*2+1)
	for _, h := range history {
		turns = append(turns,
			Turn{Role: RoleUser, Text: h.User},
			Turn{Role: RoleAssistant, Text: h.AI},
		)
	}
	turns = append(turns, Turn{Role: RoleUser, Text: message})
	return Prompt{System: SystemPrompt, Turns: turns}
}
