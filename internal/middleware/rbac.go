package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/availability-api/internal/models"
	appErrors "github.com/noah-isme/availability-api/pkg/errors"
	"github.com/noah-isme/availability-api/pkg/response"
)

// RequireRoles admits requests whose JWT claims carry one of the given roles.
// It must run after JWT. An empty role list admits every authenticated caller.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			allowed[r] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}

		if len(allowed) == 0 {
			c.Next()
			return
		}
		if _, ok := allowed[strings.ToLower(claims.Role)]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
	}
}
