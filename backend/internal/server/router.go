package server

import (
	"net/http"
	"time"

	"portfolio-backend/backend/internal/handler"
	"portfolio-backend/backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterOptions struct {
	AuthHandler      *handler.AuthHandler
	ContactHandler   *handler.ContactHandler
	AnalyticsHandler *handler.AnalyticsHandler
	ChatHandler      *handler.ChatHandler
	DashboardHandler *handler.DashboardHandler
	PageHandler      *handler.PageHandler
	SessionLoader    *middleware.SessionLoader
	AdminGuard       middleware.Authenticator
	ChatLimiter      *middleware.RateLimitMiddleware
	AllowedOrigins   []string
	TrustedProxies   []string
	StaticFS         http.FileSystem
	Logger           *zap.SugaredLogger
}

// NewRouter 构建应用的 Gin Engine，汇总页面、公开接口与后台接口。
func NewRouter(opts RouterOptions) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 未配置可信代理时 ClientIP 只取连接地址，避免伪造 X-Forwarded-For 绕过登录限流。
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	if opts.SessionLoader != nil {
		r.Use(opts.SessionLoader.Handle())
	}

	if opts.StaticFS != nil {
		r.StaticFS("/static", opts.StaticFS)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", handler.Health)

	if opts.PageHandler != nil {
		r.GET("/", opts.PageHandler.Index)
		r.GET("/admin/login.html", opts.PageHandler.Login)
		r.GET("/admin/dashboard.html", opts.PageHandler.Dashboard)
	}

	api := r.Group("/api")
	{
		if opts.ContactHandler != nil {
			api.POST("/contact", opts.ContactHandler.Submit)
		}
		if opts.AnalyticsHandler != nil {
			api.POST("/analytics", opts.AnalyticsHandler.Track)
		}
		if opts.ChatHandler != nil {
			chat := []gin.HandlerFunc{}
			if opts.ChatLimiter != nil {
				chat = append(chat, opts.ChatLimiter.Handle())
			}
			chat = append(chat, opts.ChatHandler.Reply)
			api.POST("/ai-chat", chat...)
		}

		admin := api.Group("/admin")
		if opts.AuthHandler != nil {
			admin.POST("/login", opts.AuthHandler.Login)
			admin.POST("/logout", opts.AuthHandler.Logout)
			admin.GET("/check", opts.AuthHandler.Check)
		}

		// 后台数据接口单独分组，再挂载会话鉴权。
		if opts.DashboardHandler != nil {
			data := admin.Group("")
			if opts.AdminGuard != nil {
				data.Use(opts.AdminGuard.Handle())
			}
			data.GET("/messages", opts.DashboardHandler.Messages)
			data.GET("/chats", opts.DashboardHandler.Chats)
			data.GET("/analytics", opts.DashboardHandler.Analytics)
			data.GET("/stats", opts.DashboardHandler.Stats)
		}
	}

	return r, nil
}

// corsConfig 允许所有来源时不能携带凭证，否则按白名单放行并允许 cookie。
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-Id", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
