package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/jwt"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/response"
)

const (
	UserIDKey      = "user_id"
	DisplayNameKey = "display_name"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	TokenQueryKey  = "token"
)

// TokenValidator validates a bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware validates bearer tokens issued by pkg/jwt.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth returns a Gin middleware that validates the bearer token and
// stores the caller's identity in the Gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.Request)
		if token == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(DisplayNameKey, claims.DisplayName)

		c.Next()
	}
}

// BearerToken extracts the token from the Authorization header, falling back
// to the token query parameter. Browsers cannot set headers on WebSocket
// upgrades, so the query form is what socket clients use.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get(AuthHeaderKey); h != "" {
		if !strings.HasPrefix(h, BearerPrefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(h, BearerPrefix))
	}
	return r.URL.Query().Get(TokenQueryKey)
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetDisplayName extracts the display name from Gin context.
func GetDisplayName(c *gin.Context) string {
	return c.GetString(DisplayNameKey)
}
