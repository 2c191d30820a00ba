package portfolio

import (
	"time"

	"gorm.io/datatypes"
)

// ContactMessage 记录一次联系表单提交，写入后不再修改。
type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Subject   string    `gorm:"size:255" json:"subject"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}

// TableName 固定表名，兼容既有数据库。
func (ContactMessage) TableName() string {
	return "contact_messages"
}

// AnalyticsEvent 记录一次前端上报或服务端埋点事件，Data 为不做解释的 JSON。
type AnalyticsEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Event     string         `gorm:"size:128;index" json:"event"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `gorm:"index" json:"timestamp"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics"
}

// AdminUser 后台管理员账号，只允许通过初始化种子或运维手段写入。
type AdminUser struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"column:password;size:255" json:"-"` // SHA-256 十六进制或 bcrypt 哈希
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// ChatLog 记录一次 AI 对话往返，无论回复来自模型还是兜底规则。
type ChatLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserMessage string    `gorm:"type:text" json:"user_message"`
	AIReply     string    `gorm:"column:ai_reply;type:text" json:"ai_reply"`
	CreatedAt   time.Time `gorm:"index" json:"timestamp"`
}

func (ChatLog) TableName() string {
	return "ai_chats"
}

// Counts 汇总后台首页展示的计数。
type Counts struct {
	Messages int64 `json:"messages"`
	Chats    int64 `json:"chats"`
	Events   int64 `json:"events"`
}

// Models 返回需要迁移的全部实体。
func Models() []any {
	return []any{&ContactMessage{}, &AnalyticsEvent{}, &AdminUser{}, &ChatLog{}}
}
