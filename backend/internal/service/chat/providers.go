package chat

import (
	"context"

	"portfolio-backend/backend/internal/infra/model/deepseek"
	"portfolio-backend/backend/internal/infra/model/gemini"
	"portfolio-backend/backend/internal/infra/model/vertex"
	"portfolio-backend/backend/internal/infra/model/volcengine"
)

// GeminiProvider 通过 Gemini Developer API 生成回复。
type GeminiProvider struct {
	client *gemini.Client
}

func NewGeminiProvider(client *gemini.Client) *GeminiProvider {
	return &GeminiProvider{client: client}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	turns := make([]gemini.Turn, 0, len(prompt.Turns))
	for _, turn := range prompt.Turns {
		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		turns = append(turns, gemini.Turn{Role: role, Text: turn.Text})
	}
	return p.client.Generate(ctx, prompt.System, turns)
}

// DeepSeekProvider 通过 DeepSeek Chat Completion 生成回复。
type DeepSeekProvider struct {
	client *deepseek.Client
}

func NewDeepSeekProvider(client *deepseek.Client) *DeepSeekProvider {
	return &DeepSeekProvider{client: client}
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	messages := make([]deepseek.Message, 0, len(prompt.Turns))
	for _, turn := range prompt.Turns {
		messages = append(messages, deepseek.Message{Role: turn.Role, Content: turn.Text})
	}
	return p.client.Complete(ctx, prompt.System, messages)
}

// VolcengineProvider 通过火山方舟生成回复。
type VolcengineProvider struct {
	client *volcengine.Client
}

func NewVolcengineProvider(client *volcengine.Client) *VolcengineProvider {
	return &VolcengineProvider{client: client}
}

func (p *VolcengineProvider) Name() string { return "volcengine" }

func (p *VolcengineProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	messages := make([]volcengine.ChatMessage, 0, len(prompt.Turns)+1)
	if prompt.System != "" {
		messages = append(messages, volcengine.ChatMessage{Role: "system", Content: prompt.System})
	}
	for _, turn := range prompt.Turns {
		messages = append(messages, volcengine.ChatMessage{Role: turn.Role, Content: turn.Text})
	}
	resp, err := p.client.ChatCompletion(ctx, volcengine.ChatCompletionRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// VertexProvider 通过 Vertex AI 会话接口生成回复。
type VertexProvider struct {
	client *vertex.Client
}

func NewVertexProvider(client *vertex.Client) *VertexProvider {
	return &VertexProvider{client: client}
}

func (p *VertexProvider) Name() string { return "vertex" }

// Generate 把除最后一条以外的消息作为会话历史，最后一条作为本次发送内容。
func (p *VertexProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if len(prompt.Turns) == 0 {
		return "", nil
	}
	last := prompt.Turns[len(prompt.Turns)-1]
	history := make([]vertex.Turn, 0, len(prompt.Turns)-1)
	for _, turn := range prompt.Turns[:len(prompt.Turns)-1] {
		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, vertex.Turn{Role: role, Text: turn.Text})
	}
	return p.client.Chat(ctx, prompt.System, history, last.Text)
}

var (
	_ Provider = (*GeminiProvider)(nil)
	_ Provider = (*DeepSeekProvider)(nil)
	_ Provider = (*VolcengineProvider)(nil)
	_ Provider = (*VertexProvider)(nil)
)
