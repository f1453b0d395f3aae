package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"geoattend-backend/internal/platform/apierr"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apierr.Body(apierr.Unauthorized(msg)))
}

// RequireAuth verifies "Authorization: Bearer <token>" and stores sub/role in the context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abortUnauthorized(c, "missing Authorization header")
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			abortUnauthorized(c, "empty token")
			return
		}

		// alg pinned to HS256, rejects "none"
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || token == nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid claims")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			abortUnauthorized(c, "invalid sub")
			return
		}

		role, _ := claims["role"].(string)

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if _, allowed := roleSet[role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, apierr.Body(apierr.Forbidden("Insufficient permissions")))
			return
		}
		c.Next()
	}
}

// EmployeeID returns the authenticated subject. ok=false means a 401 was written.
func EmployeeID(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserIDKey)
	if id == "" {
		abortUnauthorized(c, "not authenticated")
		return "", false
	}
	return id, true
}
