package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DriverSQLite 为默认的本地数据库。
	DriverSQLite = "sqlite"
	// DriverMySQL 对应线上 MySQL 部署。
	DriverMySQL = "mysql"
	// DriverPostgres 对应 PostgreSQL 部署。
	DriverPostgres = "postgres"

	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreCookie = "cookie"

	ProviderGemini     = "gemini"
	ProviderDeepSeek   = "deepseek"
	ProviderVolcengine = "volcengine"
	ProviderVertex     = "vertex"

	// DefaultSecretKey 仅用于本地开发，生产环境必须通过 SECRET_KEY 覆盖。
	DefaultSecretKey = "SUPER_SECRET_KEY_CHANGE_IN_PRODUCTION_12345"

	geminiPlaceholderKey = "your_gemini_api_key_here"

	defaultPort          = "5000"
	defaultSQLitePath    = "database/portfolio.db"
	defaultMySQLPort     = 3306
	defaultMySQLDatabase = "portfolio"
	defaultMySQLParams   = "charset=utf8mb4&loc=UTC"
	defaultSessionTTL    = 12 * time.Hour
	defaultAITimeout     = 15 * time.Second
	defaultChatLimit     = 30
	defaultChatWindow    = time.Minute
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultDeepSeekModel = "deepseek-chat"
	defaultVertexModel   = "gemini-1.5-flash"
	defaultVertexRegion  = "us-central1"
)

// Server 汇总 HTTP 服务启动所需的全部配置。
type Server struct {
	Port           string
	SecretKey      string
	AllowedOrigins []string
	TrustedProxies []string
	StaticDir      string
	TemplatesDir   string
	Database       Database
	Redis          Redis
	Session        Session
	LoginLimiter   string
	AI             AI
	ChatLimit      ChatLimit
	NotifyTo       string
}

// Database 描述存储后端的选择与连接参数。
type Database struct {
	Driver      string
	SQLitePath  string
	MySQL       MySQL
	PostgresDSN string
}

// MySQL 描述 MySQL 连接参数。
type MySQL struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Params   string
}

// Redis 为可选依赖，Endpoint 为空表示不启用。
type Redis struct {
	Endpoint string
	Password string
	DB       int
}

// Enabled 判断是否配置了 Redis。
func (r Redis) Enabled() bool {
	return strings.TrimSpace(r.Endpoint) != ""
}

// Session 描述管理员会话的存储方式与 Cookie 属性。
type Session struct {
	Store        string
	TTL          time.Duration
	CookieSecure bool
}

// AI 描述对话模型的提供方与凭据。
type AI struct {
	Provider string
	Timeout  time.Duration

	GeminiAPIKey string
	GeminiModel  string

	DeepSeekAPIKey  string
	DeepSeekModel   string
	DeepSeekBaseURL string

	VolcengineAPIKey  string
	VolcengineModel   string
	VolcengineBaseURL string

	VertexProjectID string
	VertexLocation  string
	VertexModel     string
}

// Configured 判断当前选择的提供方是否具备可用凭据。
func (a AI) Configured() bool {
	switch a.Provider {
	case ProviderGemini:
		return a.GeminiAPIKey != "" && a.GeminiAPIKey != geminiPlaceholderKey
	case ProviderDeepSeek:
		return a.DeepSeekAPIKey != ""
	case ProviderVolcengine:
		return a.VolcengineAPIKey != "" && a.VolcengineModel != ""
	case ProviderVertex:
		return a.VertexProjectID != ""
	default:
		return false
	}
}

// ChatLimit 控制 /api/ai-chat 的单 IP 请求频率，Limit<=0 表示关闭。
type ChatLimit struct {
	Limit  int
	Window time.Duration
}

// LoadServer 读取环境变量，构造服务配置；非法取值直接返回错误。
func LoadServer() (Server, error) {
	LoadEnvFiles()

	cfg := Server{
		Port:           envOr("PORT", defaultPort),
		SecretKey:      envOr("SECRET_KEY", DefaultSecretKey),
		AllowedOrigins: splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		StaticDir:      envOr("STATIC_DIR", "static"),
		TemplatesDir:   envOr("TEMPLATES_DIR", "templates"),
		LoginLimiter:   strings.ToLower(envOr("LOGIN_LIMITER_STORE", StoreMemory)),
		NotifyTo:       strings.TrimSpace(os.Getenv("CONTACT_NOTIFY_TO")),
	}

	db, err := loadDatabase()
	if err != nil {
		return Server{}, err
	}
	cfg.Database = db

	redisCfg, err := loadRedis()
	if err != nil {
		return Server{}, err
	}
	cfg.Redis = redisCfg

	sessionCfg, err := loadSession()
	if err != nil {
		return Server{}, err
	}
	cfg.Session = sessionCfg

	aiCfg, err := loadAI()
	if err != nil {
		return Server{}, err
	}
	cfg.AI = aiCfg

	chatLimit, err := loadChatLimit()
	if err != nil {
		return Server{}, err
	}
	cfg.ChatLimit = chatLimit

	if cfg.LoginLimiter != StoreMemory && cfg.LoginLimiter != StoreRedis {
		return Server{}, fmt.Errorf("invalid LOGIN_LIMITER_STORE %q", cfg.LoginLimiter)
	}
	if (cfg.LoginLimiter == StoreRedis || cfg.Session.Store == StoreRedis) && !cfg.Redis.Enabled() {
		return Server{}, fmt.Errorf("redis store selected but REDIS_ENDPOINT not set")
	}

	return cfg, nil
}

func loadDatabase() (Database, error) {
	db := Database{
		Driver:      strings.ToLower(envOr("DB_DRIVER", DriverSQLite)),
		SQLitePath:  normalisePath(envOr("SQLITE_PATH", defaultSQLitePath)),
		PostgresDSN: strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		MySQL: MySQL{
			Host:     strings.TrimSpace(os.Getenv("MYSQL_HOST")),
			Port:     defaultMySQLPort,
			Username: strings.TrimSpace(os.Getenv("MYSQL_USER")),
			Password: os.Getenv("MYSQL_PASSWORD"),
			Database: envOr("MYSQL_DATABASE", defaultMySQLDatabase),
			Params:   envOr("MYSQL_PARAMS", defaultMySQLParams),
		},
	}

	if raw := strings.TrimSpace(os.Getenv("MYSQL_PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return Database{}, fmt.Errorf("invalid MYSQL_PORT %q", raw)
		}
		db.MySQL.Port = port
	}

	switch db.Driver {
	case DriverSQLite:
	case DriverMySQL:
		if db.MySQL.Host == "" || db.MySQL.Username == "" {
			return Database{}, fmt.Errorf("mysql driver requires MYSQL_HOST and MYSQL_USER")
		}
	case DriverPostgres:
		if db.PostgresDSN == "" {
			return Database{}, fmt.Errorf("postgres driver requires POSTGRES_DSN")
		}
	default:
		return Database{}, fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}
	return db, nil
}

func loadRedis() (Redis, error) {
	r := Redis{
		Endpoint: strings.TrimSpace(os.Getenv("REDIS_ENDPOINT")),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return Redis{}, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		r.DB = value
	}
	return r, nil
}

func loadSession() (Session, error) {
	s := Session{
		Store: strings.ToLower(envOr("SESSION_STORE", StoreCookie)),
		TTL:   defaultSessionTTL,
	}
	switch s.Store {
	case StoreCookie, StoreMemory, StoreRedis:
	default:
		return Session{}, fmt.Errorf("invalid SESSION_STORE %q", s.Store)
	}

	ttl, err := parseDuration("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return Session{}, err
	}
	s.TTL = ttl

	if raw := strings.TrimSpace(os.Getenv("COOKIE_SECURE")); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return Session{}, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
		s.CookieSecure = secure
	}
	return s, nil
}

func loadAI() (AI, error) {
	a := AI{
		Provider:          strings.ToLower(envOr("AI_PROVIDER", ProviderGemini)),
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:       envOr("GEMINI_MODEL", defaultGeminiModel),
		DeepSeekAPIKey:    strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
		DeepSeekModel:     envOr("DEEPSEEK_MODEL", defaultDeepSeekModel),
		DeepSeekBaseURL:   strings.TrimSpace(os.Getenv("DEEPSEEK_BASE_URL")),
		VolcengineAPIKey:  strings.TrimSpace(os.Getenv("VOLCENGINE_API_KEY")),
		VolcengineModel:   strings.TrimSpace(os.Getenv("VOLCENGINE_MODEL")),
		VolcengineBaseURL: strings.TrimSpace(os.Getenv("VOLCENGINE_BASE_URL")),
		VertexProjectID:   strings.TrimSpace(os.Getenv("VERTEX_PROJECT_ID")),
		VertexLocation:    envOr("VERTEX_LOCATION", defaultVertexRegion),
		VertexModel:       envOr("VERTEX_MODEL", defaultVertexModel),
	}
	switch a.Provider {
	case ProviderGemini, ProviderDeepSeek, ProviderVolcengine, ProviderVertex:
	default:
		return AI{}, fmt.Errorf("unsupported AI_PROVIDER %q", a.Provider)
	}

	timeout, err := parseDuration("AI_TIMEOUT", defaultAITimeout)
	if err != nil {
		return AI{}, err
	}
	a.Timeout = timeout
	return a, nil
}

func loadChatLimit() (ChatLimit, error) {
	limit := ChatLimit{Limit: defaultChatLimit, Window: defaultChatWindow}
	if raw := strings.TrimSpace(os.Getenv("CHAT_RATE_LIMIT")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return ChatLimit{}, fmt.Errorf("invalid CHAT_RATE_LIMIT: %w", err)
		}
		limit.Limit = value
	}
	window, err := parseDuration("CHAT_RATE_WINDOW", defaultChatWindow)
	if err != nil {
		return ChatLimit{}, err
	}
	limit.Window = window
	return limit, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}

// splitList 解析逗号分隔的列表，忽略空项。
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// normalisePath 将路径展开为绝对路径，兼容 ~ 前缀与相对路径。
func normalisePath(raw string) string {
	if raw == "" || raw == ":memory:" || strings.HasPrefix(raw, "file:") {
		return raw
	}
	if strings.HasPrefix(raw, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	if abs, err := filepath.Abs(raw); err == nil {
		return abs
	}
	return raw
}
