package repository

import (
	"context"

	"portfolio-backend/backend/internal/domain/portfolio"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteStore 基于 SQLite 的存储实现，适合单机部署与测试。
type SQLiteStore struct {
	*gormStore
}

// NewSQLiteStore 包装 SQLite 连接。
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{gormStore: &gormStore{db: db}}
}

// SeedAdmin 使用 INSERT OR IGNORE 写入默认管理员。
func (s *SQLiteStore) SeedAdmin(ctx context.Context) error {
	return seedWithModifier(ctx, s.db, "OR IGNORE")
}

// MySQLStore 基于 MySQL 的存储实现，建表统一使用 InnoDB + utf8mb4。
type MySQLStore struct {
	*gormStore
}

// NewMySQLStore 包装 MySQL 连接。
func NewMySQLStore(db *gorm.DB) *MySQLStore {
	return &MySQLStore{gormStore: &gormStore{
		db:           db,
		tableOptions: "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci",
	}}
}

// SeedAdmin 使用 INSERT IGNORE 写入默认管理员。
func (s *MySQLStore) SeedAdmin(ctx context.Context) error {
	return seedWithModifier(ctx, s.db, "IGNORE")
}

// PostgresStore 基于 PostgreSQL 的存储实现，种子语句走 ON CONFLICT DO NOTHING。
type PostgresStore struct {
	*gormStore
}

// NewPostgresStore 包装 PostgreSQL 连接。
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{gormStore: &gormStore{db: db}}
}

func seedWithModifier(ctx context.Context, db *gorm.DB, modifier string) error {
	admin := portfolio.AdminUser{
		Username:     DefaultAdminUsername,
		PasswordHash: DefaultAdminPasswordHash,
	}
	return db.WithContext(ctx).Clauses(clause.Insert{Modifier: modifier}).Create(&admin).Error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MySQLStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
