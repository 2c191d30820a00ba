package volcengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
	"github.com/volcengine/volcengine-go-sdk/volcengine/volcengineerr"
)

const defaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// Client 封装与火山引擎 Ark Runtime 的交互逻辑。
type Client struct {
	apiKey  string
	baseURL string
	model   string

	once sync.Once
	sdk  *arkruntime.Client
}

// Option 允许自定义 Client 行为。
type Option func(*Client)

// WithBaseURL 设置自定义 Base URL。
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed == "" {
			return
		}
		c.baseURL = strings.TrimRight(trimmed, "/")
	}
}

// WithModel 设置推理接入点或模型 ID。
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = strings.TrimSpace(model)
	}
}

// NewClient 以 API Key 初始化火山引擎客户端，默认指向华北地域。
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model 返回默认模型。
func (c *Client) Model() string { return c.model }

// ensureSDK 延迟创建底层 SDK 客户端，并发调用下只初始化一次。
func (c *Client) ensureSDK() {
	c.once.Do(func() {
		c.sdk = arkruntime.NewClientWithApiKey(c.apiKey, arkruntime.WithBaseUrl(c.baseURL))
	})
}

// ChatCompletion 调用方舟 Chat Completion 接口，返回第一个候选。
func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if c == nil {
		return ChatCompletionResponse{}, errors.New("volcengine client is nil")
	}
	if c.apiKey == "" {
		return ChatCompletionResponse{}, errors.New("volcengine api key is empty")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	if model == "" {
		return ChatCompletionResponse{}, errors.New("model 字段不能为空")
	}
	if len(req.Messages) == 0 {
		return ChatCompletionResponse{}, errors.New("messages 至少需要一条消息")
	}

	c.ensureSDK()

	arkReq := arkmodel.CreateChatCompletionRequest{
		Model:    model,
		Messages: toArkMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		arkReq.MaxTokens = volcengine.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		arkReq.Temperature = volcengine.Float32(float32(req.Temperature))
	}

	resp, err := c.sdk.CreateChatCompletion(ctx, arkReq)
	if err != nil {
		var rf volcengineerr.RequestFailure
		if errors.As(err, &rf) {
			return ChatCompletionResponse{}, &APIError{
				StatusCode: rf.StatusCode(),
				Code:       rf.Code(),
				Message:    rf.Message(),
			}
		}
		return ChatCompletionResponse{}, fmt.Errorf("volcengine chat completion: %w", err)
	}
	return convertResponse(resp), nil
}

func toArkMessages(messages []ChatMessage) []*arkmodel.ChatCompletionMessage {
	out := make([]*arkmodel.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, &arkmodel.ChatCompletionMessage{
			Role: normalizeRole(msg.Role),
			Content: &arkmodel.ChatCompletionMessageContent{
				StringValue: volcengine.String(msg.Content),
			},
		})
	}
	return out
}

// normalizeRole 将角色名称转换为方舟 SDK 识别的常量。
func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "system":
		return arkmodel.ChatMessageRoleSystem
	case "assistant", "model":
		return arkmodel.ChatMessageRoleAssistant
	default:
		return arkmodel.ChatMessageRoleUser
	}
}

func convertResponse(resp arkmodel.ChatCompletionResponse) ChatCompletionResponse {
	out := ChatCompletionResponse{
		ID:          resp.ID,
		Model:       resp.Model,
		TotalTokens: resp.Usage.TotalTokens,
	}
	for _, choice := range resp.Choices {
		if choice.Message.Content != nil && choice.Message.Content.StringValue != nil {
			out.Content = *choice.Message.Content.StringValue
		}
		out.FinishReason = string(choice.FinishReason)
		break
	}
	return out
}
