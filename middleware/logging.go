package middleware

import (
	"time"

	"identity-service/common"
	"identity-service/pkg/log"

	"github.com/gin-gonic/gin"
)

type LoggerConfig struct {
	// SkipPaths is an url path array which logs are not written.
	// Optional.
	SkipPaths []string
}

func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{SkipPaths: []string{"/health"}}
}

// Logging writes one entry per request once it has been handled. Bodies are
// never logged since they carry passwords and tokens.
func (m *middlewares) Logging(config ...LoggerConfig) gin.HandlerFunc {
	conf := DefaultLoggerConfig()
	if len(config) > 0 {
		conf = config[0]
	}

	// Create skip path map for faster lookup
	skipPaths := make(map[string]bool)
	for _, path := range conf.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		if latency > time.Minute {
			latency = latency.Truncate(time.Second)
		}

		fields := []log.Field{
			log.Method(c.Request.Method),
			log.String("path", path),
			log.String("route", c.FullPath()),
			log.StatusCode(c.Writer.Status()),
			log.ResponseTime(latency),
			log.String("client_ip", common.GetClientIP(c)),
			log.String("user_agent", c.Request.UserAgent()),
			log.Int("response_size", c.Writer.Size()),
		}
		if claims := common.GetClaimsFromCtx(c); claims != nil {
			fields = append(fields, log.RoleID(claims.RoleID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, log.Strings("errors", c.Errors.Errors()))
		}

		ctx := c.Request.Context()
		statusCode := c.Writer.Status()
		message := "HTTP Request Completed"

		switch {
		case statusCode >= 500:
			m.logger.ErrorContext(ctx, message, fields...)
		case statusCode >= 400:
			m.logger.WarnContext(ctx, message, fields...)
		default:
			m.logger.InfoContext(ctx, message, fields...)
		}
	}
}
