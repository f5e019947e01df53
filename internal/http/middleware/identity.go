package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Gin context keys for the caller identity. An upstream auth layer may set
// them directly; otherwise Identity fills them from trusted headers.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"

	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Identity copies X-User-ID and X-User-Role into the context unless an
// earlier middleware already set them. Values are trusted as given.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			if v := strings.TrimSpace(c.GetHeader(HeaderUserID)); v != "" {
				c.Set(CtxUserID, v)
			}
		}
		if UserRole(c) == "" {
			if v := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))); v != "" {
				c.Set(CtxUserRole, v)
			}
		}
		c.Next()
	}
}

// UserID returns the caller id or "".
func UserID(c *gin.Context) string { return c.GetString(CtxUserID) }

// UserRole returns the caller role or "".
func UserRole(c *gin.Context) string { return c.GetString(CtxUserRole) }

// RequireRole rejects anonymous callers with 401 and callers holding none of
// roles with 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if UserID(c) == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing caller identity")
			return
		}
		if _, ok := allowed[UserRole(c)]; !ok {
			abortJSON(c, http.StatusForbidden, "forbidden", "role not permitted")
			return
		}
		c.Next()
	}
}

// abortJSON writes the shared error envelope from middleware, which cannot
// import the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
