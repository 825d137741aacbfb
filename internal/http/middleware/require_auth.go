package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GITAKAYA254/vendorhub-connect/internal/auth"
	"github.com/GITAKAYA254/vendorhub-connect/internal/shared/apperr"
)

const (
	CtxKeyUserID   = "user_id"
	CtxKeyUserRole = "user_role"
)

// RequireAuth validates the bearer token and stores the caller's identity on
// the request context. JSON API only; there is no redirect flow.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			Fail(c, apperr.UnauthorizedErr("Invalid Authorization header."))
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			Fail(c, apperr.UnauthorizedErr("Invalid or expired token."))
			return
		}

		c.Set(CtxKeyUserID, claims.UserID)
		c.Set(CtxKeyUserRole, claims.Role)
		c.Next()
	}
}

// RequireVendor gates vendor self-service routes. Admins pass role checks.
func RequireVendor() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := CurrentUser(c)
		if !ok {
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}
		if role != auth.RoleVendor && role != auth.RoleAdmin {
			Fail(c, apperr.ForbiddenErr("Insufficient permissions."))
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (userID, role string, ok bool) {
	id, exists := c.Get(CtxKeyUserID)
	if !exists {
		return "", "", false
	}
	userID, _ = id.(string)
	if r, exists := c.Get(CtxKeyUserRole); exists {
		role, _ = r.(string)
	}
	return userID, role, userID != ""
}
