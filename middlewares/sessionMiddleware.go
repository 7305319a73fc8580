package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/utils"
)

// SessionMiddleware resolves the opaque session header set by older
// POS clients. Tokens live in redis under Token:$token.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
