package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/interfaces"
)

var startTime = time.Now()

// HealthCheck handles GET /health
func HealthCheck(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"uptime":  time.Since(startTime).String(),
			"version": "1.0.0",
		})
	}
}
