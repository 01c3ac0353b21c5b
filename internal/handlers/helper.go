package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDHeader = "X-User-ID"
	userIDKey    = "user_id"
)

// ParseStringIDParam returns the trimmed path parameter, or writes a 400 and
// returns "" when it is empty.
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
			Code:    CodeValidation,
		})
		return ""
	}
	return idStr
}

// RequireUser reads the learner id set by the gateway in front of the service.
// Authentication itself happens upstream.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Code:    CodeUnauthorized,
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "assessment-engine",
	})
}
