package middleware

import (
	"fmt"
	"net/http"
	"strings"

	response "portfolio-backend/backend/internal/infra/common"
	"portfolio-backend/backend/internal/infra/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware 按客户端 IP 做固定窗口限流，用于 AI 对话等开销较大的接口。
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	scope   string
	logger  *zap.SugaredLogger
}

// NewRateLimitMiddleware limiter 为 nil 时中间件直接放行。
func NewRateLimitMiddleware(limiter ratelimit.Limiter, scope string, logger *zap.SugaredLogger) *RateLimitMiddleware {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RateLimitMiddleware{limiter: limiter, scope: scope, logger: logger}
}

// Handle 限流器故障时放行，避免 Redis 抖动导致接口不可用。
func (m *RateLimitMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.limiter == nil {
			c.Next()
			return
		}
		ip := strings.TrimSpace(c.ClientIP())
		if ip == "" {
			c.Next()
			return
		}

		result, err := m.limiter.Allow(c.Request.Context(), m.scope+":"+ip)
		if err != nil {
			m.logger.Warnw("rate limiter failed", "scope", m.scope, "ip", ip, "error", err)
			c.Next()
			return
		}
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", fmt.Sprintf("%d", int(result.RetryAfter.Seconds()+0.5)))
			}
			m.logger.Infow("request rate limited", "scope", m.scope, "ip", ip)
			response.AbortError(c, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		c.Next()
	}
}
