package app

import (
	"context"
	"errors"
	"fmt"

	"portfolio-backend/backend/internal/config"
	"portfolio-backend/backend/internal/infra/client"
	"portfolio-backend/backend/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Resources 汇总进程级资源：配置、存储与可选的 Redis 连接。
type Resources struct {
	Config config.Server
	Store  repository.Store
	Redis  *redis.Client
}

// Bootstrap 读取配置、打开存储，并在返回前完成建表与管理员初始化。
func Bootstrap(ctx context.Context, logger *zap.SugaredLogger) (*Resources, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return Open(ctx, cfg, logger)
}

// Open 按给定配置初始化资源，失败时释放已打开的连接。
func Open(ctx context.Context, cfg config.Server, logger *zap.SugaredLogger) (*Resources, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	res := &Resources{Config: cfg, Store: store}

	if err := store.Migrate(ctx); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	if err := store.SeedAdmin(ctx); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	logger.Infow("storage ready", "driver", cfg.Database.Driver)

	if cfg.Redis.Enabled() {
		rdb, err := client.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		res.Redis = rdb
		logger.Infow("redis connected", "endpoint", cfg.Redis.Endpoint, "db", cfg.Redis.DB)
	}

	return res, nil
}

func openStore(cfg config.Database) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		db, err := client.OpenMySQL(cfg.MySQL)
		if err != nil {
			return nil, err
		}
		return repository.NewMySQLStore(db), nil
	case config.DriverPostgres:
		db, err := client.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(db), nil
	case config.DriverSQLite, "":
		db, err := client.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close 关闭存储与 Redis 连接。
func (r *Resources) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
