package client

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"portfolio-backend/backend/internal/config"

	mysqlcfg "github.com/go-sql-driver/mysql"
	mysqlDriver "gorm.io/driver/mysql"
	postgresDriver "gorm.io/driver/postgres"
	sqliteDriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite 打开（必要时创建）SQLite 数据库文件。
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" && !isURIPath(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := gorm.Open(sqliteDriver.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// SQLite 单写者，限制连接数避免 database is locked。
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// OpenMySQL 创建 GORM MySQL 连接并执行一次 Ping。
func OpenMySQL(cfg config.MySQL) (*gorm.DB, error) {
	dsn, err := BuildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(mysqlDriver.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open gorm mysql: %w", err)
	}
	if err := tunePool(db); err != nil {
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// OpenPostgres 创建 GORM PostgreSQL 连接并执行一次 Ping。
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := gorm.Open(postgresDriver.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	if err := tunePool(db); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// BuildMySQLDSN 校验配置后借助驱动的 Config 生成 DSN，避免手工拼接时的转义问题。
func BuildMySQLDSN(cfg config.MySQL) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("mysql host is required")
	}
	if cfg.Username == "" {
		return "", fmt.Errorf("mysql username is required")
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("mysql database is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	dsnCfg := mysqlcfg.NewConfig()
	dsnCfg.User = cfg.Username
	dsnCfg.Passwd = cfg.Password
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = cfg.Host + ":" + strconv.Itoa(port)
	dsnCfg.DBName = cfg.Database
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC

	if cfg.Params != "" {
		values, err := url.ParseQuery(cfg.Params)
		if err != nil {
			return "", fmt.Errorf("parse mysql params: %w", err)
		}
		for key := range values {
			// loc/parseTime 由上面固定设置。
			if key == "loc" || key == "parseTime" {
				continue
			}
			if dsnCfg.Params == nil {
				dsnCfg.Params = map[string]string{}
			}
			dsnCfg.Params[key] = values.Get(key)
		}
	}
	return dsnCfg.FormatDSN(), nil
}

func tunePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetConnMaxLifetime(60 * time.Minute)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return err
	}
	return nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func isURIPath(path string) bool {
	return len(path) > 5 && path[:5] == "file:"
}
