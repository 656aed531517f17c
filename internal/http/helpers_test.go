package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/bibliotheca/internal/auth"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// asUser injects an authenticated user into the request context, the way
// the auth middleware would after a session lookup.
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Next()
	}
}
