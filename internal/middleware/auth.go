package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/httperr"
)

const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

var knownRoles = map[domain.Role]bool{
	domain.RoleCounselor: true,
	domain.RoleMember:    true,
	domain.RoleAdmin:     true,
}

// AuthMiddleware validates the HS256 bearer token issued by the auth
// service and stores the caller's id and role in the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "expected a bearer token")
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			httperr.Unauthorized(c, "invalid_token", "token is invalid or expired")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httperr.Unauthorized(c, "invalid_token_claims", "token claims are unreadable")
			c.Abort()
			return
		}

		userID, ok1 := claims["sub"].(float64)
		role, ok2 := claims["role"].(string)
		if !ok1 || !ok2 || userID <= 0 || !knownRoles[domain.Role(role)] {
			httperr.Unauthorized(c, "invalid_token_payload", "token lacks a valid subject or role")
			c.Abort()
			return
		}

		c.Set(ContextUserID, uint(userID))
		c.Set(ContextUserRole, domain.Role(role))

		c.Next()
	}
}

// ActorFrom returns the authenticated caller. ok is false on routes that
// skipped AuthMiddleware.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	id, ok1 := c.Get(ContextUserID)
	role, ok2 := c.Get(ContextUserRole)
	if !ok1 || !ok2 {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: id.(uint), Role: role.(domain.Role)}, true
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			httperr.Unauthorized(c, "unauthenticated", "authentication required")
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		httperr.Forbidden(c, "forbidden", "role not allowed")
		c.Abort()
	}
}
