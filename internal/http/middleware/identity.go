// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller identity from trusted proxy headers. The
// service runs behind the platform's session gateway, which authenticates the
// user and forwards X-User-ID (numeric) and X-Username on every request; the
// middleware only parses and exposes them. Requests without a valid identity
// are rejected before reaching any handler.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	userIDHeader   = "X-User-ID"
	usernameHeader = "X-Username"

	userIDKey   = "userID"
	usernameKey = "username"
)

// Identity extracts the authenticated user from gateway headers and stores it
// in the Gin context. Missing or malformed identity yields 401 with the
// standard error envelope.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(userIDHeader)
		id, err := strconv.ParseUint(raw, 10, 64)
		if raw == "" || err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing or invalid user identity",
			})
			return
		}
		c.Set(userIDKey, uint(id))
		c.Set(usernameKey, c.GetHeader(usernameHeader))
		c.Next()
	}
}

// UserID returns the authenticated user ID, or 0 when Identity() did not run.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// Username returns the authenticated username, possibly empty.
func Username(c *gin.Context) string {
	if v, ok := c.Get(usernameKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
