package handler

import (
	"errors"
	"net/http"

	response "portfolio-backend/backend/internal/infra/common"
	"portfolio-backend/backend/internal/service/contact"

	"github.com/gin-gonic/gin"
)

// ContactHandler 处理联系表单提交。
type ContactHandler struct {
	service *contact.Service
}

func NewContactHandler(service *contact.Service) *ContactHandler {
	return &ContactHandler{service: service}
}

// Submit 处理 POST /api/contact。
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contact.Submission
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if _, err := h.service.Submit(c.Request.Context(), req); err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			response.Error(c, http.StatusBadRequest, verr.Error())
			return
		}
		response.Internal(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully"})
}
