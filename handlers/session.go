package handlers

import "github.com/gin-gonic/gin"

// sessionKey is the gin context key the session middleware populates.
const sessionKey = "sessionID"

// SessionID returns the validated session id for the current request.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// SetSessionID stores the session id on the request context.
func SetSessionID(c *gin.Context, sessionID string) {
	c.Set(sessionKey, sessionID)
}
