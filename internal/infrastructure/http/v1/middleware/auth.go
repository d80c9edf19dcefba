package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"invoicehub/internal/core/apperror"
	appctx "invoicehub/internal/core/context"
	"invoicehub/internal/core/security"
)

// JWTValidator turns a bearer token into the user it was issued to.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth requires a valid bearer token and stores its user in the request context,
// where security.CallerFromContext picks it up.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing or malformed bearer token")
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Set("user_id", user.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole lets the request through when the user holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := security.CallerFromContext(c.Request.Context())
		if caller.UserID == 0 {
			abortUnauthorized(c, "authentication required")
			return
		}

		if slices.ContainsFunc(roles, caller.HasRole) {
			c.Next()
			return
		}

		_ = c.Error(apperror.NewPermissionDenied("insufficient permissions").
			WithDetail("required_roles", roles))
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
