package deepseek

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL DeepSeek 的 OpenAI 兼容入口。
	DefaultBaseURL = "https://api.deepseek.com/v1"
	// DefaultModel 未配置模型时使用的对话模型。
	DefaultModel   = "deepseek-chat"
	defaultTimeout = 30 * time.Second
)

// Message 是一条对话消息，Role 为 user 或 assistant。
type Message struct {
	Role    string
	Content string
}

// Client 通过 OpenAI 兼容协议调用 DeepSeek。
type Client struct {
	api   *openai.Client
	model string
}

type settings struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type Option func(*settings)

func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithModel(model string) Option {
	return func(s *settings) {
		s.model = strings.TrimSpace(model)
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// NewClient 构造 DeepSeek 客户端，空字段回落到默认值。
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("deepseek api key is empty")
	}
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = s.baseURL
	cfg.HTTPClient = s.httpClient
	return &Client{api: openai.NewClientWithConfig(cfg), model: s.model}, nil
}

func (c *Client) Model() string { return c.model }

// Complete 发送 system 指令与按时间排列的消息，返回首个候选文本。
func (c *Client) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("deepseek request needs at least one message")
	}
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)+1),
	}
	if system != "" {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("deepseek chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("deepseek returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
