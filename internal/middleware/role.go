package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
	"github.com/vuchungbt/hotel-booking-sub000/internal/pkg/response"
)

// RequireRole gates a route group to the given roles. Auth must have run
// first; requests without a role in context are treated as unauthenticated.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("role")
		role, ok := v.(string)
		if !exists || !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "No role in token")
			c.Abort()
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
		c.Abort()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// HostOrAdmin guards the hotel-management surfaces: booking confirmation,
// revenue summaries and the like.
func HostOrAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleHost, domain.RoleAdmin)
}
