package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventdesk/backend/pkg/response"
)

// RequireRole rejects callers whose role is not in the allow list. Must
// run after JWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, _ := c.MustGet(ContextUserRole).(string)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
