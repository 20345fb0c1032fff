package middleware

import (
	"net/http"
	"slices"

	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRole lets the request through when the token's role is one of roles.
// It must run after JWTAuth.
func RequireRole(log *zap.Logger, roles ...identity.Role) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if GetJWTClaims(c) == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		role := GetRole(c)
		if !slices.Contains(roles, role) {
			log.Warn("Role check failed",
				zap.String("user_id", GetUserIDString(c)),
				zap.String("role", string(role)),
				zap.String("path", c.FullPath()),
			)
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "You do not have access to this resource")
			return
		}
		c.Next()
	}
}
