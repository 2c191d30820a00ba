package middleware

import (
	"net/http"

	response "portfolio-backend/backend/internal/infra/common"
	"portfolio-backend/backend/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// AdminGuard 保护后台接口，要求 SessionLoader 已经加载管理员会话。
type AdminGuard struct{}

// NewAdminGuard 创建后台鉴权中间件。
func NewAdminGuard() *AdminGuard {
	return &AdminGuard{}
}

// Handle 未登录时返回 401 {"error":"Unauthorized"}。
func (m *AdminGuard) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsAuthenticated(SessionFrom(c)) {
			response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

var (
	_ Authenticator = (*AdminGuard)(nil)
	_ Authenticator = (*SessionLoader)(nil)
)
