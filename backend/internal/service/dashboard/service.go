package dashboard

import (
	"context"

	"portfolio-backend/backend/internal/domain/portfolio"
	"portfolio-backend/backend/internal/repository"
)

// Service 为后台提供只读查询。
type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// Messages 返回全部留言，最新的在前。
func (s *Service) Messages(ctx context.Context) ([]portfolio.ContactMessage, error) {
	return s.store.ListContacts(ctx)
}

// Chats 返回最近的对话记录，最多 repository.ListLimit 条。
func (s *Service) Chats(ctx context.Context) ([]portfolio.ChatLog, error) {
	return s.store.ListChats(ctx, repository.ListLimit)
}

// Analytics 返回最近的分析事件，最多 repository.ListLimit 条。
func (s *Service) Analytics(ctx context.Context) ([]portfolio.AnalyticsEvent, error) {
	return s.store.ListAnalytics(ctx, repository.ListLimit)
}

// Stats 返回三张表的行数。
func (s *Service) Stats(ctx context.Context) (portfolio.Counts, error) {
	return s.store.Counts(ctx)
}
