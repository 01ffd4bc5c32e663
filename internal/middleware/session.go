package middleware

import (
	"context"  // Context for user lookups
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"image_editor/internal/domain" // Importing domain models
	"image_editor/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys and cookie name shared with the handlers
const (
	UserIDKey         = "userID"  // Authenticated user id in gin context
	SessionCookieName = "session" // Cookie carrying the session token
)

// UserLoader resolves a session's user; inactive or deleted users must return an error
type UserLoader interface {
	User(ctx context.Context, id uint) (*domain.User, error)
}

// SessionAuthMiddleware validates the session token and stores the user id in the context.
// The token is read from the Authorization header first, then from the session cookie.
func SessionAuthMiddleware(secret string, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := sessionToken(c) // Header or cookie token
		if tokenStr == "" {
			// No credentials at all
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired session"})
			return
		}
		// The account must still exist and be active
		if _, err := users.User(c.Request.Context(), claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired session"})
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Next()                        // Proceed to the next handler
	}
}

// sessionToken extracts the raw token from the request
func sessionToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader) // "Bearer <token>"
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return "" // Malformed header is not silently replaced by the cookie
	}
	cookie, err := c.Cookie(SessionCookieName) // Browser session
	if err != nil {
		return ""
	}
	return cookie
}

// CurrentUserID returns the authenticated user id set by SessionAuthMiddleware
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey) // Get userID from context
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
