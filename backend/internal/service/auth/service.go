package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"portfolio-backend/backend/internal/domain/portfolio"
	"portfolio-backend/backend/internal/infra/metrics"
	"portfolio-backend/backend/internal/infra/ratelimit"
	"portfolio-backend/backend/internal/infra/session"
	"portfolio-backend/backend/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrLocked 表示该地址在窗口内失败次数已达上限。
	ErrLocked = errors.New("too many login attempts")
	// ErrMissingCredentials 表示用户名或密码为空，不计入失败次数。
	ErrMissingCredentials = errors.New("missing credentials")
)

// InvalidCredentialsError 表示用户名或密码错误，Remaining 为锁定前剩余的尝试次数。
type InvalidCredentialsError struct {
	Remaining int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.Remaining)
}

// AdminFinder 按用户名查询管理员，repository.Store 满足该接口。
type AdminFinder interface {
	FindAdmin(ctx context.Context, username string) (*portfolio.AdminUser, error)
}

// LoginResult 登录成功后返回的会话令牌。
type LoginResult struct {
	Token    string
	Username string
}

// Service 负责管理员登录、登出与会话校验。
//
// 依赖说明：
//   - AdminFinder：读取管理员账号与密码摘要。
//   - AttemptWindow：按客户端地址统计失败次数，超过阈值后拒绝登录。
//   - session.Store：签发与销毁管理员会话。
type Service struct {
	admins   AdminFinder
	attempts ratelimit.AttemptWindow
	sessions session.Store
	logger   *zap.SugaredLogger
}

// NewService 创建鉴权服务，logger 为空时不输出日志。
func NewService(admins AdminFinder, attempts ratelimit.AttemptWindow, sessions session.Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if attempts == nil {
		attempts = ratelimit.NewMemoryAttemptWindow(ratelimit.DefaultMaxAttempts, ratelimit.DefaultLockout, nil)
	}
	return &Service{admins: admins, attempts: attempts, sessions: sessions, logger: logger}
}

// Login 按“先限流、再校验参数、最后比对密码”的顺序处理一次登录。
// 比对密码之前先占用一次尝试，并发请求在 Reserve 处排队，窗口内最多比对 Max 次。
func (s *Service) Login(ctx context.Context, address, username, password string) (LoginResult, error) {
	res, allowed, err := s.attempts.Reserve(ctx, address)
	if err != nil {
		metrics.RecordLogin("error")
		return LoginResult{}, fmt.Errorf("reserve login attempt: %w", err)
	}
	if !allowed {
		metrics.RecordLogin("locked")
		s.logger.Warnw("login locked", "address", address)
		return LoginResult{}, ErrLocked
	}

	if username == "" || password == "" {
		s.release(ctx, address, res)
		metrics.RecordLogin("missing")
		return LoginResult{}, ErrMissingCredentials
	}

	admin, err := s.admins.FindAdmin(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrAdminNotFound) {
		s.release(ctx, address, res)
		metrics.RecordLogin("error")
		return LoginResult{}, fmt.Errorf("find admin: %w", err)
	}

	if admin == nil || !VerifyPassword(admin.PasswordHash, password) {
		// 占用的那次尝试即记为失败。
		remaining := s.attempts.Max() - res.Count
		if remaining < 0 {
			remaining = 0
		}
		metrics.RecordLogin("invalid")
		s.logger.Infow("login failed", "address", address, "username", username, "remaining", remaining)
		return LoginResult{}, &InvalidCredentialsError{Remaining: remaining}
	}

	if err := s.attempts.Clear(ctx, address); err != nil {
		s.logger.Warnw("clear login attempts failed", "address", address, "error", err)
	}

	token, err := s.sessions.Create(ctx, session.Data{Admin: true, Username: admin.Username})
	if err != nil {
		metrics.RecordLogin("error")
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	metrics.RecordLogin("success")
	s.logger.Infow("admin logged in", "address", address, "username", admin.Username)
	return LoginResult{Token: token, Username: admin.Username}, nil
}

func (s *Service) release(ctx context.Context, address string, res ratelimit.Reservation) {
	if err := s.attempts.Release(ctx, address, res); err != nil {
		s.logger.Warnw("release login attempt failed", "address", address, "error", err)
	}
}

// Logout 销毁会话，token 为空时直接返回。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, token)
}

// Resolve 读取 token 对应的会话，无效或缺失时返回零值。
func (s *Service) Resolve(ctx context.Context, token string) (session.Data, error) {
	if token == "" {
		return session.Data{}, nil
	}
	data, ok, err := s.sessions.Load(ctx, token)
	if err != nil {
		return session.Data{}, err
	}
	if !ok {
		return session.Data{}, nil
	}
	return data, nil
}

// IsAuthenticated 仅当会话带有 admin 标记时返回 true。
func IsAuthenticated(data session.Data) bool {
	return data.Admin
}

// VerifyPassword 比对密码与存储的摘要。
// bcrypt 摘要（$2 开头）走 bcrypt 校验，其余按 SHA-256 十六进制做常量时间比较。
func VerifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	sum := sha256.Sum256([]byte(password))
	candidate := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(candidate)) == 1
}

// HashPassword 生成 bcrypt 摘要，cmd/admin-passwd 用它替换默认密码。
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrMissingCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
