package middleware

import (
	"net/http"
	"strings"

	"roombooking/internal/policy"
	"roombooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxPrincipal = "principal"
	ctxUserID    = "user_id"
	ctxRole      = "role"
)

// TokenVerifier turns a bearer token into the caller's identity without
// consulting storage.
type TokenVerifier interface {
	Verify(token string) (policy.Principal, error)
}

func JWTAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Empty token")
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ctxPrincipal, principal)
		c.Set(ctxUserID, principal.ID)
		c.Set(ctxRole, string(principal.Role))

		c.Next()
	}
}

// PrincipalFrom returns the caller attached by JWTAuth.
func PrincipalFrom(c *gin.Context) (policy.Principal, bool) {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return policy.Principal{}, false
	}
	p, ok := v.(policy.Principal)
	return p, ok
}
