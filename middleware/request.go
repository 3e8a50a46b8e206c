package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"identity-service/common"
	"identity-service/domain"
	"identity-service/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID reuses the caller's X-Request-ID or generates one, and exposes it
// to handlers, the response and context-aware loggers.
func (m *middlewares) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(common.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(common.RequestIDContextKey, requestID)
		c.Header(common.RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(log.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Recovery turns a panic into a 500 envelope.
func (m *middlewares) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		m.logger.ErrorContext(c.Request.Context(), "panic recovered",
			log.Any("panic", recovered),
			log.Method(c.Request.Method),
			log.String("path", c.FullPath()),
		)
		common.ResponseError(c, domain.ErrInternalServerError)
	})
}

// Timeout bounds the request context. Handlers that outlive it get a 504
// unless they already wrote a response.
func (m *middlewares) Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.Response(c, http.StatusGatewayTimeout, "REQUEST_TIMEOUT", struct{}{}, "request took longer than "+d.String())
		}
	}
}
