package handler

import (
	"net/http"
	"time"

	"library_management/internal/middleware"
	"library_management/internal/model"
	"library_management/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueHandler handles loan requests
type IssueHandler struct {
	service service.IssueService
}

// NewIssueHandler creates a new IssueHandler
func NewIssueHandler(s service.IssueService) *IssueHandler {
	return &IssueHandler{service: s}
}

func (h *IssueHandler) CreateIssue(c *gin.Context) {
	var req model.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	issue, err := h.service.CreateIssue(c.Request.Context(), req, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *IssueHandler) ReturnIssue(c *gin.Context) {
	id, ok := parseIntParam(c, "issueId")
	if !ok {
		return
	}
	issue, err := h.service.ReturnIssue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) ListIssues(c *gin.Context) {
	issues, err := h.service.ListIssues(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *IssueHandler) ListStudentIssues(c *gin.Context) {
	issues, err := h.service.ListStudentIssues(c.Request.Context(), c.Param("studentId"), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *IssueHandler) ListOverdue(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}
	issues, err := h.service.ListOverdue(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *IssueHandler) SendReminders(c *gin.Context) {
	report, err := h.service.DispatchReminders(c.Request.Context(), time.Time{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// asOfParam reads the optional RFC 3339 asOf query parameter. Zero means now.
func asOfParam(c *gin.Context) (time.Time, bool) {
	v := c.Query("asOf")
	if v == "" {
		return time.Time{}, true
	}
	asOf, err := time.Parse(time.RFC3339, v)
	if err != nil {
		badRequest(c, "Invalid asOf, use RFC 3339", err)
		return time.Time{}, false
	}
	return asOf, true
}

// RegisterIssueRoutes registers loan routes. Everything needs a token; all
// but the per-student listing need the issue capability.
func (h *IssueHandler) RegisterIssueRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	issues := rg.Group("/issues", authMW)
	issues.GET("/student/:studentId", h.ListStudentIssues) // Service layer handles ownership

	manage := issues.Group("", middleware.CapabilityMiddleware(model.CapManageIssues))
	{
		manage.POST("", h.CreateIssue)
		manage.GET("", h.ListIssues)
		manage.GET("/overdue", h.ListOverdue)
		manage.POST("/reminders", h.SendReminders)
		manage.PUT("/:issueId/return", h.ReturnIssue)
	}
}
