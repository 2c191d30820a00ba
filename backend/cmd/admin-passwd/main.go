package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"portfolio-backend/backend/internal/app"
	"portfolio-backend/backend/internal/infra/logger"
	"portfolio-backend/backend/internal/repository"
	"portfolio-backend/backend/internal/service/auth"
)

var (
	username = flag.String("username", repository.DefaultAdminUsername, "管理员用户名")
	password = flag.String("password", "", "新密码，留空时读取 ADMIN_PASSWORD")
)

// main 完成建表与默认管理员初始化后，把指定管理员的密码替换为 bcrypt 摘要。
func main() {
	flag.Parse()

	zapLogger, err := logger.Init()
	if err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	defer logger.Sync()
	sugar := zapLogger.Sugar()

	secret := *password
	if secret == "" {
		secret = os.Getenv("ADMIN_PASSWORD")
	}
	if strings.TrimSpace(secret) == "" {
		sugar.Fatalw("new password is required (-password or ADMIN_PASSWORD)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resources, err := app.Bootstrap(ctx, sugar)
	if err != nil {
		sugar.Fatalw("initialise resources failed", "error", err)
	}
	defer func() {
		if closeErr := resources.Close(); closeErr != nil {
			sugar.Warnw("close resources failed", "error", closeErr)
		}
	}()

	hash, err := auth.HashPassword(secret)
	if err != nil {
		sugar.Fatalw("hash password failed", "error", err)
	}
	if err := resources.Store.SetAdminPassword(ctx, strings.TrimSpace(*username), hash); err != nil {
		sugar.Fatalw("update admin password failed", "username", *username, "error", err)
	}
	sugar.Infow("admin password updated", "username", *username, "driver", resources.Config.Database.Driver)
}
