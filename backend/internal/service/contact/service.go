package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portfolio-backend/backend/internal/domain/portfolio"
	"portfolio-backend/backend/internal/infra/metrics"
	"portfolio-backend/backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// EventContact 每次提交联系表单写入的分析事件名。
const EventContact = "contact_form"

// notifyTimeout 通知发送的截止时间，不影响表单提交结果。
const notifyTimeout = 20 * time.Second

// ValidationError 指出第一个缺失的字段。
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "Missing " + e.Field
}

// Submission 是联系表单的原始输入。
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Notifier 把新留言转发给站长，email.SMTPSender 与 email.AliyunSender 实现该接口。
type Notifier interface {
	Name() string
	NotifyContact(ctx context.Context, msg *portfolio.ContactMessage) error
}

// LogNotifier 未配置邮件渠道时只写日志。
type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) NotifyContact(_ context.Context, msg *portfolio.ContactMessage) error {
	l.logger.Infow("contact message received", "id", msg.ID, "email", msg.Email, "subject", msg.Subject)
	return nil
}

// Service 保存联系表单并发送通知。
type Service struct {
	store    repository.Store
	notifier Notifier
	logger   *zap.SugaredLogger
	async    bool
}

// Option 调整 Service 行为。
type Option func(*Service)

// WithAsyncNotify 让通知在后台 goroutine 中发送，请求无需等待邮件服务。
func WithAsyncNotify() Option {
	return func(s *Service) { s.async = true }
}

func NewService(store repository.Store, notifier Notifier, logger *zap.SugaredLogger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	svc := &Service{store: store, notifier: notifier, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Submit 校验四个必填字段，在同一事务中写入留言与分析事件，提交后再发送通知。
func (s *Service) Submit(ctx context.Context, in Submission) (*portfolio.ContactMessage, error) {
	msg := &portfolio.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if err := validate(msg); err != nil {
		metrics.RecordContact("invalid")
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"email": msg.Email})
	if err != nil {
		return nil, fmt.Errorf("encode contact analytics: %w", err)
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.InsertContact(ctx, msg); err != nil {
			return err
		}
		return tx.InsertAnalytics(ctx, &portfolio.AnalyticsEvent{Event: EventContact, Data: datatypes.JSON(payload)})
	})
	if err != nil {
		metrics.RecordContact("error")
		s.logger.Errorw("store contact message failed", "error", err)
		return nil, fmt.Errorf("store contact message: %w", err)
	}
	metrics.RecordContact("stored")

	if s.async {
		go s.notify(context.WithoutCancel(ctx), msg)
	} else {
		s.notify(ctx, msg)
	}
	return msg, nil
}

func (s *Service) notify(ctx context.Context, msg *portfolio.ContactMessage) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyContact(ctx, msg); err != nil {
		s.logger.Warnw("contact notification failed", "notifier", s.notifier.Name(), "id", msg.ID, "error", err)
	}
}

func validate(msg *portfolio.ContactMessage) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", msg.Name},
		{"email", msg.Email},
		{"subject", msg.Subject},
		{"message", msg.Message},
	}
	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}
