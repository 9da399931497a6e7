package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WebSocketMiddleware only lets upgrade requests through and labels the client for the
// hub's logs (?client=front-desk).
func WebSocketMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.AbortWithStatus(http.StatusUpgradeRequired)
			return
		}

		label := c.Query("client")
		if label == "" {
			label = c.ClientIP()
		}
		c.Set("client", label)

		c.Next()
	}
}
