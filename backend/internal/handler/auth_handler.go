package handler

import (
	"errors"
	"fmt"
	"net/http"

	response "portfolio-backend/backend/internal/infra/common"
	"portfolio-backend/backend/internal/middleware"
	"portfolio-backend/backend/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgLocked       = "Too many login attempts. Please try again in 5 minutes."
	msgMissingCreds = "Missing credentials"
	msgLoginOK      = "Login successful"
	msgLoggedOut    = "Logged out"
)

// AuthHandler 负责管理员登录、登出与登录态查询。
type AuthHandler struct {
	service *auth.Service
	cookie  middleware.CookieOptions
	logger  *zap.SugaredLogger
}

// NewAuthHandler 构造鉴权 handler。
func NewAuthHandler(service *auth.Service, cookie middleware.CookieOptions, logger *zap.SugaredLogger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AuthHandler{service: service, cookie: cookie, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 处理 POST /api/admin/login。
// 请求体不是合法 JSON 时按缺少凭证处理，但仍然先经过限流判断。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.Login(c.Request.Context(), c.ClientIP(), req.Username, req.Password)
	if err != nil {
		var invalid *auth.InvalidCredentialsError
		switch {
		case errors.Is(err, auth.ErrLocked):
			response.Fail(c, http.StatusTooManyRequests, msgLocked)
		case errors.Is(err, auth.ErrMissingCredentials):
			response.Fail(c, http.StatusBadRequest, msgMissingCreds)
		case errors.As(err, &invalid):
			response.FailWithRemaining(c, http.StatusUnauthorized,
				fmt.Sprintf("Invalid credentials. %d attempts remaining.", invalid.Remaining), invalid.Remaining)
		default:
			h.logger.Errorw("admin login failed", "error", err)
			response.Internal(c)
		}
		return
	}

	middleware.SetSessionCookie(c, result.Token, h.cookie)
	response.Succeed(c, msgLoginOK)
}

// Logout 处理 POST /api/admin/logout，无论是否登录都返回成功。
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		h.logger.Warnw("destroy session failed", "error", err)
	}
	middleware.ClearSessionCookie(c, h.cookie)
	response.Succeed(c, msgLoggedOut)
}

// Check 处理 GET /api/admin/check。
func (h *AuthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": auth.IsAuthenticated(middleware.SessionFrom(c))})
}
