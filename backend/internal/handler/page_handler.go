package handler

import (
	"net/http"
	"path/filepath"

	"portfolio-backend/backend/internal/middleware"
	"portfolio-backend/backend/internal/service/auth"

	"github.com/gin-gonic/gin"
)

const (
	loginPagePath     = "/admin/login.html"
	dashboardPagePath = "/admin/dashboard.html"
)

// PageHandler 输出站点与后台的静态 HTML 页面。
type PageHandler struct {
	templatesDir string
}

func NewPageHandler(templatesDir string) *PageHandler {
	return &PageHandler{templatesDir: templatesDir}
}

// Index GET /。
func (h *PageHandler) Index(c *gin.Context) {
	h.serve(c, "index.html")
}

// Login GET /admin/login.html，已登录时跳转到后台首页。
func (h *PageHandler) Login(c *gin.Context) {
	if auth.IsAuthenticated(middleware.SessionFrom(c)) {
		c.Redirect(http.StatusFound, dashboardPagePath)
		return
	}
	h.serve(c, "login.html")
}

// Dashboard GET /admin/dashboard.html，未登录时跳转到登录页。
func (h *PageHandler) Dashboard(c *gin.Context) {
	if !auth.IsAuthenticated(middleware.SessionFrom(c)) {
		c.Redirect(http.StatusFound, loginPagePath)
		return
	}
	h.serve(c, "dashboard.html")
}

func (h *PageHandler) serve(c *gin.Context, name string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.File(filepath.Join(h.templatesDir, name))
}
