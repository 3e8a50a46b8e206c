package common

import (
	"fmt"
	"net/http"
	"time"

	"identity-service/domain"

	"github.com/gin-gonic/gin"
)

type ResponseT[T any] struct {
	Status      int    `json:"status"`
	Code        string `json:"code"`
	Data        T      `json:"data"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

type PageResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination *domain.Pagination `json:"pagination"`
}

var logger Logger

// SetLogger sets the logger for response logging
func SetLogger(l Logger) {
	logger = l
}

func Response[T any](c *gin.Context, status int, code string, data T, desc string) {
	c.AbortWithStatusJSON(status, ResponseT[T]{
		Status:      status,
		Code:        code,
		Data:        data,
		Description: desc,
		RequestID:   GetRequestIDFromCtx(c),
	})
}

func ResponseOK[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusOK, "SUCCESS", data, desc)
}

func ResponseCreated[T any](c *gin.Context, data T, desc string) {
	Response(c, http.StatusCreated, "SUCCESS", data, desc)
}

func ResponseNoContent(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

// ResponseError renders err as a DetailedError. Errors that are not
// DetailedErrors surface as a 500 with their cause logged, never exposed.
func ResponseError(c *gin.Context, err error) {
	dErr := domain.AsDetailedError(err)
	requestID := GetRequestIDFromCtx(c)

	if logger != nil {
		keysAndValues := []interface{}{
			"status", dErr.StatusCode(),
			"code", dErr.ID(),
			"kind", dErr.Kind(),
			"path", c.FullPath(),
			"method", c.Request.Method,
			"request_id", requestID,
		}
		if dErr.StatusCode() >= http.StatusInternalServerError {
			logger.Error("API error", append(keysAndValues, "error", fmt.Sprintf("%+v", dErr))...)
		} else {
			logger.Warn("API error", append(keysAndValues, "reason", dErr.Reason())...)
		}
	}

	c.AbortWithStatusJSON(dErr.StatusCode(), ResponseT[map[string]interface{}]{
		Status:      dErr.StatusCode(),
		Code:        dErr.ID(),
		Data:        dErr.Details(),
		Description: dErr.Error(),
		Reason:      dErr.Reason(),
		RequestID:   requestID,
	})
}

func ResponseTooManyRequests(c *gin.Context, desc string, retryAt time.Time) {
	retryAfterSeconds := int64(0)
	retryAtISO := ""

	if !retryAt.IsZero() {
		retryAfterSeconds = int64(time.Until(retryAt).Seconds())
		if retryAfterSeconds > 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfterSeconds))
		}
		retryAtISO = retryAt.Format(time.RFC3339)
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ResponseT[map[string]interface{}]{
		Status:      http.StatusTooManyRequests,
		Code:        domain.ErrTooManyRequests.ID(),
		Description: desc,
		RequestID:   GetRequestIDFromCtx(c),
		Data: map[string]interface{}{
			"retry_at":            retryAtISO,
			"retry_after_seconds": retryAfterSeconds,
		},
	})
}
