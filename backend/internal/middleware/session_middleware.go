package middleware

import (
	"context"
	"net/http"
	"time"

	"portfolio-backend/backend/internal/infra/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	contextSessionKey = "session"
	contextTokenKey   = "session_token"
)

// SessionResolver 把 cookie 中的令牌解析为会话，auth.Service 实现该接口。
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (session.Data, error)
}

// SessionLoader 在每个请求开始时读取会话 cookie，放入 gin.Context。
type SessionLoader struct {
	resolver SessionResolver
	logger   *zap.SugaredLogger
}

// NewSessionLoader 创建会话加载中间件。
func NewSessionLoader(resolver SessionResolver, logger *zap.SugaredLogger) *SessionLoader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SessionLoader{resolver: resolver, logger: logger}
}

// Handle 解析失败只记录日志，请求按未登录继续。
func (m *SessionLoader) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err == nil && token != "" {
			data, err := m.resolver.Resolve(c.Request.Context(), token)
			if err != nil {
				m.logger.Warnw("resolve session failed", "error", err)
			} else {
				c.Set(contextSessionKey, data)
				c.Set(contextTokenKey, token)
			}
		}
		c.Next()
	}
}

// SessionFrom 返回当前请求的会话，未登录时为零值。
func SessionFrom(c *gin.Context) session.Data {
	if v, ok := c.Get(contextSessionKey); ok {
		if data, ok := v.(session.Data); ok {
			return data
		}
	}
	return session.Data{}
}

// SessionToken 返回当前请求携带的会话令牌。
func SessionToken(c *gin.Context) string {
	return c.GetString(contextTokenKey)
}

// CookieOptions 控制会话 cookie 的属性。
type CookieOptions struct {
	Secure bool
}

// SetSessionCookie 写入会话 cookie：HttpOnly、SameSite=Lax、不设置 Max-Age，浏览器关闭即失效。
func SetSessionCookie(c *gin.Context, token string, opts CookieOptions) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie 让浏览器立即删除会话 cookie。
func ClearSessionCookie(c *gin.Context, opts CookieOptions) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
