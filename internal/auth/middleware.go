package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/bibliotheca/internal/config"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyIsAdmin  = "auth_is_admin"
)

// Middleware resolves the requesting reader. Browsing and reading are open
// to everyone; an unauthenticated request simply carries the anonymous user
// ID. Endpoints that require an account or an administrator opt in via
// RequireUser and RequireAdmin.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
	}
}

// Handler returns a Gin middleware that resolves the session user, if any,
// into the request context. Never rejects.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, entities.AnonymousUserID)

		if m.config.Mode == config.AuthModeLocal && m.sessionManager != nil {
			if userID := m.sessionManager.GetUserID(c.Request); userID != entities.AnonymousUserID {
				c.Set(ContextKeyUserID, userID)
				c.Set(ContextKeyUsername, m.sessionManager.GetUsername(c.Request))
				c.Set(ContextKeyIsAdmin, m.sessionManager.GetIsAdmin(c.Request))
			}
		}
		c.Next()
	}
}

// RequireUser rejects anonymous requests. With auth disabled every request
// passes, since there are no accounts to distinguish.
func (m *Middleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if GetUserID(c) == entities.AnonymousUserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from non-administrators.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.config.Mode == config.AuthModeNone {
			c.Next()
			return
		}
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// Helper functions to extract auth data from Gin context

// GetUserID retrieves the authenticated user's ID from the context.
// Returns entities.AnonymousUserID when not signed in.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return entities.AnonymousUserID
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// IsAdmin reports whether the request comes from an administrator.
func IsAdmin(c *gin.Context) bool {
	if v, exists := c.Get(ContextKeyIsAdmin); exists {
		if isAdmin, ok := v.(bool); ok {
			return isAdmin
		}
	}
	return false
}
