package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/backend/internal/app"
	"portfolio-backend/backend/internal/bootstrap"
	"portfolio-backend/backend/internal/infra/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := logger.Init(); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.S()

	resources, err := app.Bootstrap(ctx, logger.Named("app"))
	if err != nil {
		sugar.Fatalw("bootstrap failed", "error", err)
	}
	defer func() {
		if err := resources.Close(); err != nil {
			sugar.Warnw("resource cleanup error", "error", err)
		}
	}()

	application, err := bootstrap.BuildApplication(ctx, sugar, resources)
	if err != nil {
		sugar.Fatalw("build application failed", "error", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			sugar.Warnw("application cleanup error", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", resources.Config.Port),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// 模型调用最长约 15s，写超时需要留出余量。
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		sugar.Infow("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			sugar.Errorw("http server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("graceful shutdown failed", "error", err)
	}
}
