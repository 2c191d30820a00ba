package handler

import (
	"net/http"

	response "portfolio-backend/backend/internal/infra/common"
	"portfolio-backend/backend/internal/service/dashboard"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 提供后台数据查询，路由层负责挂载 AdminGuard。
type DashboardHandler struct {
	service *dashboard.Service
}

func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Messages GET /api/admin/messages。
func (h *DashboardHandler) Messages(c *gin.Context) {
	items, err := h.service.Messages(c.Request.Context())
	respond(c, items, err)
}

// Chats GET /api/admin/chats。
func (h *DashboardHandler) Chats(c *gin.Context) {
	items, err := h.service.Chats(c.Request.Context())
	respond(c, items, err)
}

// Analytics GET /api/admin/analytics。
func (h *DashboardHandler) Analytics(c *gin.Context) {
	items, err := h.service.Analytics(c.Request.Context())
	respond(c, items, err)
}

// Stats GET /api/admin/stats。
func (h *DashboardHandler) Stats(c *gin.Context) {
	counts, err := h.service.Stats(c.Request.Context())
	respond(c, counts, err)
}

func respond(c *gin.Context, body any, err error) {
	if err != nil {
		_ = c.Error(err)
		response.Internal(c)
		return
	}
	c.JSON(http.StatusOK, body)
}
