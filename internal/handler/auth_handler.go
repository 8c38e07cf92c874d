package handler

import (
	"net/http"

	"library_management/internal/middleware"
	"library_management/internal/model"
	"library_management/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles registration, login and account management
type UserHandler struct {
	auth  service.AuthService
	users service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(auth service.AuthService, users service.UserService) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c).Profile())
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) ListStudents(c *gin.Context) {
	students, err := h.users.ListStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIntParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	profile, err := h.users.UpdateUser(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIntParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// RegisterUserRoutes registers account routes, plus the /students alias.
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	users := rg.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
	}

	authed := users.Group("", authMW)
	{
		authed.GET("/me", h.Me)
		authed.PUT("/:id", h.UpdateUser) // Service layer handles ownership and role changes
		authed.GET("", middleware.CapabilityMiddleware(model.CapViewUsers), h.ListUsers)
		authed.GET("/students", middleware.AdminMiddleware(), h.ListStudents)
		authed.DELETE("/:id", middleware.SuperAdminMiddleware(), h.DeleteUser)
	}

	rg.GET("/students", authMW, middleware.AdminMiddleware(), h.ListStudents)
}
