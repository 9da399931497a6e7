package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/snooker-cafe/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		entry := utils.InfoLogger.WithFields(logrus.Fields{"ip": c.ClientIP()})
		// dashboards poll every few seconds, keep those out of the info log
		if c.Request.Method == "GET" && status < 400 {
			entry.Debugf("%s | %3d | %13v | %s", c.Request.Method, status, latency, path)
			return
		}
		entry.Printf("%s | %3d | %13v | %s", c.Request.Method, status, latency, path)
	}
}
