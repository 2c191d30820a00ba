package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const (
	// DefaultLocation Vertex AI 默认区域。
	DefaultLocation = "us-central1"
	// DefaultModel 默认模型。
	DefaultModel = "gemini-1.5-flash"
)

// Turn 是一条历史消息，Role 为 user 或 model。
type Turn struct {
	Role string
	Text string
}

// Client 通过 Vertex AI SDK 调用 Gemini，凭据来自 Application Default Credentials。
type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient 创建 Vertex AI 客户端，调用方负责 Close。
func NewClient(ctx context.Context, projectID, location, modelName string) (*Client, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("vertex project id is empty")
	}
	if strings.TrimSpace(location) == "" {
		location = DefaultLocation
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}
	c, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}
	return &Client{client: c, modelName: modelName}, nil
}

// Model 返回模型名称。
func (c *Client) Model() string { return c.modelName }

// Close 释放底层 gRPC 连接。
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Chat 以 system 指令和历史开启一次会话，发送 message 并返回回复文本。
// 每次调用都创建新的 GenerativeModel，避免并发请求共享 SystemInstruction。
func (c *Client) Chat(ctx context.Context, system string, history []Turn, message string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("vertex client is nil")
	}

	model := c.client.GenerativeModel(c.modelName)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	session.History = make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		session.History = append(session.History, &genai.Content{
			Role:  turn.Role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("vertex send message: %w", err)
	}
	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	return strings.TrimSpace(sb.String())
}
