package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"library_management/internal/middleware"
	"library_management/internal/model"
	"library_management/internal/service"

	"github.com/gin-gonic/gin"
)

// BookHandler handles catalog requests
type BookHandler struct {
	service service.BookService
}

// NewBookHandler creates a new BookHandler
func NewBookHandler(s service.BookService) *BookHandler {
	return &BookHandler{service: s}
}

func (h *BookHandler) ListBooks(c *gin.Context) {
	books, err := h.service.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *BookHandler) SearchBooks(c *gin.Context) {
	var filters model.BookFilters
	if v := strings.TrimSpace(c.Query("title")); v != "" {
		filters.Title = &v
	}
	if v := strings.TrimSpace(c.Query("author")); v != "" {
		filters.Author = &v
	}
	if v := strings.TrimSpace(c.Query("subject")); v != "" {
		filters.Subject = &v
	}
	if v := c.Query("semester"); v != "" {
		semester, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			badRequest(c, "Invalid semester", err)
			return
		}
		sem := int(semester)
		filters.Semester = &sem
	}

	books, err := h.service.SearchBooks(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}
	book, err := h.service.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) CreateBook(c *gin.Context) {
	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	book, err := h.service.CreateBook(c.Request.Context(), req, middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}
	var req model.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request", err)
		return
	}

	book, err := h.service.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

func (h *BookHandler) SeedBooks(c *gin.Context) {
	n, err := h.service.SeedBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Books seeded successfully", "count": n})
}

// RegisterBookRoutes registers catalog routes. Reads are public; writes need
// the catalog capability.
func (h *BookHandler) RegisterBookRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	books := rg.Group("/books")
	{
		books.GET("", h.ListBooks)
		books.GET("/search", h.SearchBooks)
		books.GET("/:id", h.GetBook)
	}

	manage := books.Group("", authMW, middleware.CapabilityMiddleware(model.CapManageCatalog))
	{
		manage.POST("", h.CreateBook)
		manage.POST("/seed", h.SeedBooks)
		manage.PUT("/:id", h.UpdateBook)
		manage.DELETE("/:id", h.DeleteBook)
	}
}

// parseBookID reads the :id catalog number. Catalog numbers are INTEGER
// columns, so anything past that range is a book that cannot exist.
func parseBookID(c *gin.Context) (int, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if errors.Is(err, strconv.ErrRange) && id > 0 {
		respondError(c, service.ErrBookNotFound)
		return 0, false
	}
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id", "error": "must be a positive integer"})
		return 0, false
	}
	return int(id), true
}
