package chat

import "strings"

const (
	replyServices = "💼 I offer AI, full-stack web development, and mobile app solutions. Want details on any one?"
	replyPricing  = "💰 Pricing depends on scope. Contact me via the form or email to get a quote."
	replyContact  = "📧 You can reach me at marakibgolder@gmail.com or use the contact form."
	replyGeneric  = "🤖 I’m here to help! Ask me about services, projects, or how to get started."
)

// FallbackReply 按关键字优先级 service > hire/price > contact 选择固定回复。
func FallbackReply(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "service"):
		return replyServices
	case strings.Contains(msg, "hire"), strings.Contains(msg, "price"):
		return replyPricing
	case strings.Contains(msg, "contact"):
		return replyContact
	default:
		return replyGeneric
	}
}
