package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"portfolio-backend/backend/internal/domain/portfolio"
	"portfolio-backend/backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// EventChat 每次对话写入的分析事件名。
const EventChat = "ai_chat"

// ErrEmptyMessage 表示去除空白后消息为空。
var ErrEmptyMessage = errors.New("message required")

// Service 处理一次对话请求：生成回复并在同一事务中记录对话与分析事件。
type Service struct {
	generator *Generator
	store     repository.Store
	logger    *zap.SugaredLogger
}

func NewService(generator *Generator, store repository.Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{generator: generator, store: store, logger: logger}
}

// Reply 返回回复文本，只有存储失败时才返回错误。
func (s *Service) Reply(ctx context.Context, message string, history []Exchange) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	reply := s.generator.GenerateReply(ctx, message, history)

	payload, err := json.Marshal(map[string]int{"message_length": utf8.RuneCountInString(message)})
	if err != nil {
		return "", fmt.Errorf("encode chat analytics: %w", err)
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.InsertChat(ctx, &portfolio.ChatLog{UserMessage: message, AIReply: reply}); err != nil {
			return err
		}
		return tx.InsertAnalytics(ctx, &portfolio.AnalyticsEvent{Event: EventChat, Data: datatypes.JSON(payload)})
	})
	if err != nil {
		s.logger.Errorw("store chat exchange failed", "error", err)
		return "", fmt.Errorf("store chat exchange: %w", err)
	}
	return reply, nil
}
