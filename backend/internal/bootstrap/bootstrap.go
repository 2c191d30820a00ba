package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"portfolio-backend/backend/internal/app"
	"portfolio-backend/backend/internal/config"
	"portfolio-backend/backend/internal/handler"
	"portfolio-backend/backend/internal/infra/email"
	"portfolio-backend/backend/internal/infra/metrics"
	"portfolio-backend/backend/internal/infra/model/deepseek"
	"portfolio-backend/backend/internal/infra/model/gemini"
	"portfolio-backend/backend/internal/infra/model/vertex"
	"portfolio-backend/backend/internal/infra/model/volcengine"
	"portfolio-backend/backend/internal/infra/ratelimit"
	"portfolio-backend/backend/internal/infra/session"
	"portfolio-backend/backend/internal/middleware"
	"portfolio-backend/backend/internal/server"
	analyticssvc "portfolio-backend/backend/internal/service/analytics"
	authsvc "portfolio-backend/backend/internal/service/auth"
	chatsvc "portfolio-backend/backend/internal/service/chat"
	contactsvc "portfolio-backend/backend/internal/service/contact"
	dashboardsvc "portfolio-backend/backend/internal/service/dashboard"

	"go.uber.org/zap"
)

type Application struct {
	Resources *app.Resources
	AuthSvc   *authsvc.Service
	ChatSvc   *chatsvc.Service
	Router    http.Handler

	closers []func() error
}

// Close 释放 BuildApplication 额外创建的客户端，Resources 由调用方关闭。
func (a *Application) Close() error {
	if a == nil {
		return nil
	}
	var first error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// BuildApplication 按配置装配会话、限流、模型提供方与通知渠道，返回可直接挂载的 Router。
func BuildApplication(ctx context.Context, logger *zap.SugaredLogger, resources *app.Resources) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg := resources.Config
	application := &Application{Resources: resources}

	metrics.MustRegister()

	if cfg.SecretKey == config.DefaultSecretKey {
		logger.Warnw("SECRET_KEY is using the development default; set it before deploying")
	}

	sessions, err := initSessionStore(resources, logger)
	if err != nil {
		return nil, err
	}
	attempts := initAttemptWindow(resources, logger)

	authService := authsvc.NewService(resources.Store, attempts, sessions, logger.Named("auth"))
	cookieOpts := middleware.CookieOptions{Secure: cfg.Session.CookieSecure}

	provider, closeProvider, err := initChatProvider(ctx, cfg.AI, logger)
	if err != nil {
		return nil, err
	}
	if closeProvider != nil {
		application.closers = append(application.closers, closeProvider)
	}
	generator := chatsvc.NewGenerator(provider, cfg.AI.Timeout, logger.Named("chat"))
	chatService := chatsvc.NewService(generator, resources.Store, logger.Named("chat"))

	notifier, async, err := initNotifier(cfg.NotifyTo, logger)
	if err != nil {
		return nil, err
	}
	var contactOpts []contactsvc.Option
	if async {
		contactOpts = append(contactOpts, contactsvc.WithAsyncNotify())
	}
	contactService := contactsvc.NewService(resources.Store, notifier, logger.Named("contact"), contactOpts...)

	router, err := server.NewRouter(server.RouterOptions{
		AuthHandler:      handler.NewAuthHandler(authService, cookieOpts, logger.Named("auth")),
		ContactHandler:   handler.NewContactHandler(contactService),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticssvc.NewService(resources.Store)),
		ChatHandler:      handler.NewChatHandler(chatService),
		DashboardHandler: handler.NewDashboardHandler(dashboardsvc.NewService(resources.Store)),
		PageHandler:      handler.NewPageHandler(cfg.TemplatesDir),
		SessionLoader:    middleware.NewSessionLoader(authService, logger.Named("session")),
		AdminGuard:       middleware.NewAdminGuard(),
		ChatLimiter:      middleware.NewRateLimitMiddleware(initChatLimiter(resources), "chat", logger.Named("ratelimit")),
		AllowedOrigins:   cfg.AllowedOrigins,
		TrustedProxies:   cfg.TrustedProxies,
		StaticFS:         server.NewStaticFS(cfg.StaticDir),
		Logger:           logger.Named("http"),
	})
	if err != nil {
		_ = application.Close()
		return nil, fmt.Errorf("build router: %w", err)
	}

	application.AuthSvc = authService
	application.ChatSvc = chatService
	application.Router = router
	return application, nil
}

func initSessionStore(resources *app.Resources, logger *zap.SugaredLogger) (session.Store, error) {
	cfg := resources.Config.Session
	switch cfg.Store {
	case config.StoreRedis:
		if resources.Redis == nil {
			return nil, fmt.Errorf("session store redis selected but redis not configured")
		}
		logger.Infow("using redis session store", "ttl", cfg.TTL)
		return session.NewRedisStore(resources.Redis, "", cfg.TTL), nil
	case config.StoreCookie:
		store, err := session.NewCookieStore(resources.Config.SecretKey, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("init cookie session store: %w", err)
		}
		logger.Infow("using signed cookie sessions; logout cannot revoke issued tokens", "ttl", cfg.TTL)
		return store, nil
	default:
		logger.Infow("using in-memory session store; sessions won't persist across restarts", "ttl", cfg.TTL)
		return session.NewMemoryStore(cfg.TTL), nil
	}
}

func initAttemptWindow(resources *app.Resources, logger *zap.SugaredLogger) ratelimit.AttemptWindow {
	if resources.Config.LoginLimiter == config.StoreRedis && resources.Redis != nil {
		logger.Infow("login attempts shared through redis")
		return ratelimit.NewRedisAttemptWindow(resources.Redis, "portfolio:login", 0, 0, nil)
	}
	return ratelimit.NewMemoryAttemptWindow(0, 0, nil)
}

func initChatLimiter(resources *app.Resources) ratelimit.Limiter {
	limit := resources.Config.ChatLimit
	if limit.Limit <= 0 {
		return nil
	}
	if resources.Redis != nil {
		return ratelimit.NewRedisLimiter(resources.Redis, "portfolio:ratelimit", limit.Limit, limit.Window)
	}
	return ratelimit.NewMemoryLimiter(limit.Limit, limit.Window, nil)
}

// initChatProvider 未配置凭据时返回 nil provider，对话接口全部使用兜底回复。
func initChatProvider(ctx context.Context, cfg config.AI, logger *zap.SugaredLogger) (chatsvc.Provider, func() error, error) {
	if !cfg.Configured() {
		logger.Warnw("ai provider not configured; chat will use fallback replies", "provider", cfg.Provider)
		return nil, nil, nil
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.GeminiModel))
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini client: %w", err)
		}
		logger.Infow("ai provider ready", "provider", cfg.Provider, "model", client.Model())
		return chatsvc.NewGeminiProvider(client), nil, nil
	case config.ProviderDeepSeek:
		client, err := deepseek.NewClient(cfg.DeepSeekAPIKey,
			deepseek.WithModel(cfg.DeepSeekModel),
			deepseek.WithBaseURL(cfg.DeepSeekBaseURL),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("init deepseek client: %w", err)
		}
		logger.Infow("ai provider ready", "provider", cfg.Provider, "model", client.Model())
		return chatsvc.NewDeepSeekProvider(client), nil, nil
	case config.ProviderVolcengine:
		client := volcengine.NewClient(cfg.VolcengineAPIKey,
			volcengine.WithModel(cfg.VolcengineModel),
			volcengine.WithBaseURL(cfg.VolcengineBaseURL),
		)
		logger.Infow("ai provider ready", "provider", cfg.Provider, "model", client.Model())
		return chatsvc.NewVolcengineProvider(client), nil, nil
	case config.ProviderVertex:
		client, err := vertex.NewClient(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.VertexModel)
		if err != nil {
			return nil, nil, fmt.Errorf("init vertex client: %w", err)
		}
		logger.Infow("ai provider ready", "provider", cfg.Provider, "model", client.Model())
		return chatsvc.NewVertexProvider(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

// initNotifier 依次尝试 SMTP 与阿里云邮件推送，都未配置时仅记录日志。
// 邮件渠道在后台发送，避免拖慢表单提交。
func initNotifier(to string, logger *zap.SugaredLogger) (contactsvc.Notifier, bool, error) {
	smtpCfg, enabled, err := email.LoadSMTPConfigFromEnv(to)
	if err != nil {
		return nil, false, fmt.Errorf("load smtp config: %w", err)
	}
	if enabled {
		sender, err := email.NewSMTPSender(smtpCfg)
		if err != nil {
			return nil, false, fmt.Errorf("init smtp sender: %w", err)
		}
		logger.Infow("contact notifications via smtp", "host", smtpCfg.Host)
		return sender, true, nil
	}

	aliyunCfg, enabled, err := email.LoadAliyunConfigFromEnv(to)
	if err != nil {
		return nil, false, fmt.Errorf("load aliyun mail config: %w", err)
	}
	if enabled {
		sender, err := email.NewAliyunSender(aliyunCfg)
		if err != nil {
			return nil, false, fmt.Errorf("init aliyun sender: %w", err)
		}
		logger.Infow("contact notifications via aliyun directmail", "region", aliyunCfg.RegionID)
		return sender, true, nil
	}

	return contactsvc.NewLogNotifier(logger.Named("contact")), false, nil
}
