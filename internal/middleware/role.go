package middleware

import (
	"net/http"

	"roombooking/internal/policy"
	"roombooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRoomManager lets the request through only for principals allowed to
// manage the room catalog.
func RequireRoomManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if !policy.CanManageRooms(principal) {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}
