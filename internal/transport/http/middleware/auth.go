package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ctxlog "github.com/ErlanBelekov/storefront/internal/log"
)

const errUnauthorized = "Unauthorized"

// AccessParser resolves an access token to the user ID it was minted for.
type AccessParser interface {
	ParseAccess(raw string) (string, error)
}

// Auth validates a Bearer access token and sets "userID" in the gin context.
// The user ID is also attached to the request context for log records.
func Auth(tokens AccessParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		userID, err := tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set("userID", userID)
		c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
