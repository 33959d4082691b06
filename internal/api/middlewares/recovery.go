package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/models"
	"election-ledger/internal/api/types"
	"election-ledger/pkg/logger"
)

// Recovery converts panics into structured 500 responses
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(map[string]interface{}{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		}).Error("panic recovered")

		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error: "internal server error",
			Code:  models.ErrCodeInternal,
		})
		c.Abort()
	})
}
