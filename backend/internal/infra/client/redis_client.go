package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"portfolio-backend/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPort    = 6379
	defaultRedisTimeout = 5 * time.Second
)

// NewRedisClient 根据配置创建 redis.Client，并执行一次 PING 验证连接。
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	host, port, err := parseEndpointWithDefault(cfg.Endpoint, defaultRedisPort)
	if err != nil {
		return nil, fmt.Errorf("invalid redis endpoint: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultRedisTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func parseEndpointWithDefault(endpoint string, defaultPort int) (string, int, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", 0, fmt.Errorf("endpoint is empty")
	}
	if !strings.Contains(endpoint, ":") {
		return endpoint, defaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
