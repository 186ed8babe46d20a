package web

import (
	"net/http"
	"strings"
	"time"

	"notesync/hub"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// JWTAuthMiddleware validates JWT tokens and populates user context.
// Extracts the Bearer token from the Authorization header, validates
// it, and sets user_guid, username, tenant, and authenticated in the
// context. If no token is present or the token is invalid, the request
// continues unauthenticated (middleware doesn't block - use RequireAuth
// for that).
func JWTAuthMiddleware(c rweb.Context) error {
	authHeader := c.Request().Header("Authorization")

	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.Set("user_guid", "")
		c.Set("authenticated", false)
		return c.Next()
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := hub.ValidateToken(tokenString)

	if err != nil {
		// Don't log every invalid token attempt (could be attack)
		c.Set("user_guid", "")
		c.Set("authenticated", false)
		return c.Next()
	}

	c.Set("user_guid", claims.UserGUID)
	c.Set("username", claims.Username)
	c.Set("tenant", claims.Tenant)
	c.Set("authenticated", true)

	return c.Next()
}

// RequireAuth blocks unauthenticated requests.
// Use this after JWTAuthMiddleware for protected endpoints.
func RequireAuth(c rweb.Context) error {
	authenticated, _ := c.Get("authenticated").(bool)
	if !authenticated {
		c.SetStatus(http.StatusUnauthorized)
		return c.WriteJSON(map[string]interface{}{
			"success": false,
			"error":   "authentication required",
		})
	}
	return c.Next()
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware(c rweb.Context) error {
	c.Response().SetHeader("X-Content-Type-Options", "nosniff")
	c.Response().SetHeader("X-Frame-Options", "DENY")
	c.Response().SetHeader("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Response().SetHeader("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")

	return c.Next()
}

// LoggingMiddleware provides request logging with timing
func LoggingMiddleware(c rweb.Context) error {
	start := time.Now()

	err := c.Next()

	logger.Debug("Request completed",
		"method", c.Request().Method(),
		"path", c.Request().Path(),
		"duration", time.Since(start).String(),
	)

	return err
}
