package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"portfolio-backend/backend/internal/domain/portfolio"
	"portfolio-backend/backend/internal/infra/metrics"
	"portfolio-backend/backend/internal/repository"

	"gorm.io/datatypes"
)

// Service 写入客户端上报的分析事件，事件名与数据均按原样保存。
type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// Record 保存一个事件，data 为空或 null 时保存为 {}。
func (s *Service) Record(ctx context.Context, event string, data json.RawMessage) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if err := s.store.InsertAnalytics(ctx, &portfolio.AnalyticsEvent{Event: event, Data: datatypes.JSON(trimmed)}); err != nil {
		return fmt.Errorf("store analytics event: %w", err)
	}
	metrics.RecordAnalytics(event)
	return nil
}
