package volcengine

import "strings"

// ChatMessage 请求或响应中的单条消息。
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest 方舟聊天补全请求参数。
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatCompletionResponse 方舟补全结果中业务关心的部分。
type ChatCompletionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason"`
	TotalTokens  int    `json:"total_tokens"`
}

// Text 返回去除首尾空白的回复文本。
func (r ChatCompletionResponse) Text() string {
	return strings.TrimSpace(r.Content)
}

// APIError 封装火山引擎返回的错误信息。
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error 实现 error 接口。
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code != "" {
		return e.Message + " (" + e.Code + ")"
	}
	return e.Message
}
