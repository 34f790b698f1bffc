package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func AboutAuthor(c *gin.Context) {
	Render(c, http.StatusOK, tplAboutAuthor, gin.H{"Title": "Об авторе"})
}

func AboutTech(c *gin.Context) {
	Render(c, http.StatusOK, tplAboutTech, gin.H{"Title": "Технологии"})
}

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
