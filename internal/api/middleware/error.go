package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gridplan/internal/api/models"
)

// ErrorHandler recovers from handler panics and renders the standard
// error envelope instead of an empty 500.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: msg},
		})
		c.Abort()
	})
}
