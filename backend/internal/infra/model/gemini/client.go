package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel 默认使用的 Gemini 模型。
const DefaultModel = "gemini-2.0-flash"

// Turn 是一条对话消息，Role 为 user 或 model。
type Turn struct {
	Role string
	Text string
}

// Client 通过 Gemini Developer API（API Key 鉴权）生成内容。
type Client struct {
	models *genai.Models
	model  string
}

type settings struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option 用于自定义 Client 行为。
type Option func(*settings)

// WithBaseURL 覆盖 API 地址，测试时指向 httptest.Server。
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// WithModel 设置模型名称。
func WithModel(model string) Option {
	return func(s *settings) {
		s.model = strings.TrimSpace(model)
	}
}

// WithHTTPClient 注入自定义 http.Client。
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// NewClient 构造 Gemini 客户端。apiKey 必填，不读取 GOOGLE_API_KEY 等环境变量。
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	s := settings{model: DefaultModel}
	for _, opt := range opts {
		opt(&s)
	}
	if s.model == "" {
		s.model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions.BaseURL = s.baseURL + "/"
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{models: client.Models, model: s.model}, nil
}

// Model 返回当前使用的模型名称。
func (c *Client) Model() string { return c.model }

// Generate 以 system 为系统指令，turns 按时间顺序作为对话内容。
func (c *Client) Generate(ctx context.Context, system string, turns []Turn) (string, error) {
	if c == nil || c.models == nil {
		return "", errors.New("gemini client is nil")
	}
	if len(turns) == 0 {
		return "", errors.New("gemini request needs at least one turn")
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == string(genai.RoleModel) {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
