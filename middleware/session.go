package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripcart/handlers"
	"tripcart/utils"
)

// SessionMiddleware extracts the client-generated session UUID from the
// X-Session-ID header. The id is anonymous and never checked against an
// identity; only its shape is validated.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(utils.SessionHeader)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + utils.SessionHeader + " header"})
			return
		}
		if _, err := uuid.Parse(sessionID); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": utils.SessionHeader + " must be a UUID"})
			return
		}

		handlers.SetSessionID(c, sessionID)
		c.Next()
	}
}
