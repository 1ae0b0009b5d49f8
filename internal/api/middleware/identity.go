package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/malagaclima/lluviabet/internal/domain"
)

// CtxUserID is the gin context key the identity middleware stores the
// caller's user id under.
const CtxUserID = "user_id"

// UserIDHeader carries the caller identity. The app shell owns identity;
// the engine just buckets wagers and wallets by this opaque string.
const UserIDHeader = "X-User-ID"

const maxUserIDLen = 128

// IdentityMiddleware resolves the caller's user id from the X-User-ID
// header. Missing or unusable values fall back to the shared anonymous
// bucket, so every request has an identity downstream.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" || len(userID) > maxUserIDLen {
			userID = domain.AnonymousUserID
		}
		c.Set(CtxUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the caller's user id from the gin context. Returns
// the anonymous bucket when the middleware did not run.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get(CtxUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return domain.AnonymousUserID
}
