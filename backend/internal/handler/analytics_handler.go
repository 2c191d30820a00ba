package handler

import (
	"encoding/json"
	"net/http"

	response "portfolio-backend/backend/internal/infra/common"
	"portfolio-backend/backend/internal/service/analytics"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 接收前端埋点。
type AnalyticsHandler struct {
	service *analytics.Service
}

func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

type analyticsRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Track 处理 POST /api/analytics。
func (h *AnalyticsHandler) Track(c *gin.Context) {
	var req analyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.service.Record(c.Request.Context(), req.Event, req.Data); err != nil {
		_ = c.Error(err)
		response.Internal(c)
		return
	}
	response.OK(c)
}
