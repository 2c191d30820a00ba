package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	response "portfolio-backend/backend/internal/infra/common"
	"portfolio-backend/backend/internal/service/chat"

	"github.com/gin-gonic/gin"
)

// ChatHandler 代理 AI 对话。
type ChatHandler struct {
	service *chat.Service
}

func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

type chatRequest struct {
	Message string          `json:"message"`
	History json.RawMessage `json:"history"`
}

// parseHistory 宽松解析历史记录：非数组整体忽略，无法识别的元素跳过。
func parseHistory(raw json.RawMessage) []chat.Exchange {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	history := make([]chat.Exchange, 0, len(items))
	for _, item := range items {
		var exchange chat.Exchange
		if err := json.Unmarshal(item, &exchange); err != nil || exchange == (chat.Exchange{}) {
			continue
		}
		history = append(history, exchange)
	}
	return history
}

// Reply 处理 POST /api/ai-chat。
func (h *ChatHandler) Reply(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Message required")
		return
	}

	reply, err := h.service.Reply(c.Request.Context(), req.Message, parseHistory(req.History))
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			response.Error(c, http.StatusBadRequest, "Message required")
			return
		}
		_ = c.Error(err)
		response.Internal(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
