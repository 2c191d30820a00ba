package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"portfolio-backend/backend/internal/domain/portfolio"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultAdminUsername 初始化时写入的管理员账号。
	DefaultAdminUsername = "admin"
	// ListLimit 后台对话/事件列表的最大返回条数。
	ListLimit = 100
)

// DefaultAdminPasswordHash 为默认密码 admin123 的 SHA-256 十六进制摘要，部署后应尽快替换。
var DefaultAdminPasswordHash = sha256Hex("admin123")

// ErrAdminNotFound 表示用户名不存在。
var ErrAdminNotFound = errors.New("admin user not found")

// Store 是持久化层的统一契约，sqlite/mysql/postgres 三种实现共享同一组操作。
type Store interface {
	Migrate(ctx context.Context) error
	SeedAdmin(ctx context.Context) error

	InsertContact(ctx context.Context, msg *portfolio.ContactMessage) error
	InsertAnalytics(ctx context.Context, event *portfolio.AnalyticsEvent) error
	InsertChat(ctx context.Context, entry *portfolio.ChatLog) error

	ListContacts(ctx context.Context) ([]portfolio.ContactMessage, error)
	ListChats(ctx context.Context, limit int) ([]portfolio.ChatLog, error)
	ListAnalytics(ctx context.Context, limit int) ([]portfolio.AnalyticsEvent, error)
	Counts(ctx context.Context) (portfolio.Counts, error)

	FindAdmin(ctx context.Context, username string) (*portfolio.AdminUser, error)
	// SetAdminPassword 覆盖管理员的密码摘要，用户名不存在时返回 ErrAdminNotFound。
	SetAdminPassword(ctx context.Context, username, passwordHash string) error

	// Transaction 在同一事务内执行 fn，fn 返回错误时整体回滚。
	Transaction(ctx context.Context, fn func(Store) error) error
	Close() error
}

// gormStore 承载三种方言共用的查询逻辑，具体方言只负责迁移参数与种子语句。
type gormStore struct {
	db           *gorm.DB
	tableOptions string
}

func (s *gormStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if s.tableOptions != "" {
		db = db.Set("gorm:table_options", s.tableOptions)
	}
	// AutoMigrate 只创建缺失的表和列，重复执行安全。
	return db.AutoMigrate(portfolio.Models()...)
}

func (s *gormStore) SeedAdmin(ctx context.Context) error {
	admin := portfolio.AdminUser{
		Username:     DefaultAdminUsername,
		PasswordHash: DefaultAdminPasswordHash,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(&admin).Error
}

func (s *gormStore) InsertContact(ctx context.Context, msg *portfolio.ContactMessage) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

func (s *gormStore) InsertAnalytics(ctx context.Context, event *portfolio.AnalyticsEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *gormStore) InsertChat(ctx context.Context, entry *portfolio.ChatLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *gormStore) ListContacts(ctx context.Context) ([]portfolio.ContactMessage, error) {
	items := make([]portfolio.ContactMessage, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, err
}

func (s *gormStore) ListChats(ctx context.Context, limit int) ([]portfolio.ChatLog, error) {
	items := make([]portfolio.ChatLog, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(clampLimit(limit)).Find(&items).Error
	return items, err
}

func (s *gormStore) ListAnalytics(ctx context.Context, limit int) ([]portfolio.AnalyticsEvent, error) {
	items := make([]portfolio.AnalyticsEvent, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(clampLimit(limit)).Find(&items).Error
	return items, err
}

func (s *gormStore) Counts(ctx context.Context) (portfolio.Counts, error) {
	var counts portfolio.Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&portfolio.ContactMessage{}).Count(&counts.Messages).Error; err != nil {
		return portfolio.Counts{}, err
	}
	if err := db.Model(&portfolio.ChatLog{}).Count(&counts.Chats).Error; err != nil {
		return portfolio.Counts{}, err
	}
	if err := db.Model(&portfolio.AnalyticsEvent{}).Count(&counts.Events).Error; err != nil {
		return portfolio.Counts{}, err
	}
	return counts, nil
}

func (s *gormStore) FindAdmin(ctx context.Context, username string) (*portfolio.AdminUser, error) {
	var admin portfolio.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *gormStore) SetAdminPassword(ctx context.Context, username, passwordHash string) error {
	result := s.db.WithContext(ctx).Model(&portfolio.AdminUser{}).
		Where("username = ?", username).
		Update("password", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, tableOptions: s.tableOptions})
	})
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > ListLimit {
		return ListLimit
	}
	return limit
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
