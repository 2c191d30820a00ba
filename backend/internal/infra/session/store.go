package session

import (
	"context"
	"time"
)

// CookieName 浏览器端保存会话令牌的 cookie 名称。
const CookieName = "portfolio_session"

// DefaultTTL 会话在服务端的最长有效期。
const DefaultTTL = 12 * time.Hour

// Data 是会话中保存的全部状态，目前仅用于标记管理员登录。
type Data struct {
	Admin    bool   `json:"admin"`
	Username string `json:"username,omitempty"`
}

// Store 负责签发、读取与销毁会话。
// Load 对不存在、已过期或被篡改的令牌返回 ok=false 且 err=nil，err 只表示存储层故障。
type Store interface {
	Create(ctx context.Context, data Data) (string, error)
	Load(ctx context.Context, token string) (Data, bool, error)
	Destroy(ctx context.Context, token string) error
}
