package common

import (
	"net"
	"strings"

	"identity-service/domain"

	"github.com/gin-gonic/gin"
)

const (
	ClaimsContextKey    = "access_claims"
	RequestIDContextKey = "request_id"
	RequestIDHeader     = "X-Request-ID"
)

// GetClientIP gets the real client IP address
func GetClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip != "" && net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := c.GetHeader("X-Real-IP"); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}

	remoteIP, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return remoteIP
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>"
// header. No header yields ("", nil); a header in any other shape is an
// invalid token rather than a missing one.
func ExtractBearerToken(c *gin.Context) (string, error) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", domain.ErrInvalidToken.WithReason("authorization header is not a bearer token")
	}
	return token, nil
}

func GetClaimsFromCtx(c *gin.Context) *domain.AccessClaims {
	if v, ok := c.Get(ClaimsContextKey); ok {
		if claims, ok := v.(*domain.AccessClaims); ok {
			return claims
		}
	}
	return nil
}

func GetRequestIDFromCtx(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}
