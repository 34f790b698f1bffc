package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/internal/logger"
	"yatube/internal/middleware"
	"yatube/internal/services"
)

// Render injects the variables every page layout uses.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, tplError, gin.H{"Code": code, "Error": message})
}

// RenderNotFound is the NoRoute handler as well.
func RenderNotFound(c *gin.Context) {
	RenderError(c, http.StatusNotFound, "Страница не найдена")
}

// handleServiceError maps service errors onto error pages. Store failures
// are logged and shown as 500.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RenderNotFound(c)
	case errors.Is(err, services.ErrForbidden):
		RenderError(c, http.StatusForbidden, "Недостаточно прав")
	default:
		l := logger.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("request failed")
		RenderError(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}

func pageNumber(c *gin.Context) int {
	return services.ParsePageNumber(c.Query("page"))
}
