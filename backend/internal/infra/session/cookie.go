package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "portfolio-backend"

type cookieClaims struct {
	Admin    bool   `json:"admin"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// CookieStore 不保存服务端状态，会话内容以 HS256 签名的 JWT 存放在 cookie 中。
// Destroy 无法吊销已签发的令牌，只依赖浏览器删除 cookie 与 exp 过期。
type CookieStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCookieStore 使用签名密钥构造无状态会话存储。
func NewCookieStore(secret string, ttl time.Duration) (*CookieStore, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CookieStore{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *CookieStore) Create(_ context.Context, data Data) (string, error) {
	now := s.now()
	claims := cookieClaims{
		Admin:    data.Admin,
		Username: data.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   data.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (s *CookieStore) Load(_ context.Context, token string) (Data, bool, error) {
	if token == "" {
		return Data{}, false, nil
	}
	claims := &cookieClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		// 签名错误、过期或格式不合法一律视为未登录。
		return Data{}, false, nil
	}
	return Data{Admin: claims.Admin, Username: claims.Username}, true, nil
}

// Destroy 对无状态会话是空操作，调用方负责清除 cookie。
func (s *CookieStore) Destroy(context.Context, string) error {
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*CookieStore)(nil)
)
