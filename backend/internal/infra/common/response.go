package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageInternal 存储或未知错误统一返回的文案，具体原因只写日志。
const MessageInternal = "Internal server error"

// Result 是登录等接口使用的 {success, message} 结构。
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// OK 返回 {"success": true}。
func OK(c *gin.Context) {
	c.JSON(http.StatusOK, Result{Success: true})
}

// Succeed 返回带提示信息的成功结果。
func Succeed(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Result{Success: true, Message: message})
}

// Fail 返回 {"success": false, "message": ...}。
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Result{Success: false, Message: message})
}

// FailWithRemaining 在失败结果里附带剩余尝试次数。
func FailWithRemaining(c *gin.Context, status int, message string, remaining int) {
	c.JSON(status, Result{Success: false, Message: message, Remaining: &remaining})
}

// Error 返回 {"error": message}。
func Error(c *gin.Context, status int, message string) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": message})
}

// AbortError 与 Error 相同，但会中止后续中间件。
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// Internal 返回 500，不向客户端暴露错误细节。
func Internal(c *gin.Context) {
	Error(c, http.StatusInternalServerError, MessageInternal)
}
