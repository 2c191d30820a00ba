package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health GET /health，不依赖数据库与模型服务。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
