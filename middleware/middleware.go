package middleware

import (
	"time"

	"identity-service/domain"
	"identity-service/pkg/cache"
	"identity-service/pkg/log"

	"github.com/gin-gonic/gin"
)

// Middlewares defines all available middleware methods
type Middlewares interface {
	// Request plumbing
	RequestID() gin.HandlerFunc
	Recovery() gin.HandlerFunc
	Timeout(d time.Duration) gin.HandlerFunc

	// Logging middlewares
	Logging(config ...LoggerConfig) gin.HandlerFunc

	// CORS middlewares
	CORS(config ...CORSConfig) gin.HandlerFunc

	// Rate limiting middlewares
	RateLimit(config ...RateLimitConfig) gin.HandlerFunc
	APIRateLimits() gin.HandlerFunc
	LoginRateLimits() gin.HandlerFunc

	// Authorization middlewares
	Authorizer(rules *RouteRules) gin.HandlerFunc
}

type TokenVerifier interface {
	Verify(tokenStr string) (*domain.AccessClaims, error)
}

// Dependencies holds all dependencies needed by middlewares
type Dependencies struct {
	Cache    cache.Client
	Logger   log.Logger
	Verifier TokenVerifier

	// AllowMissingCredential lets requests without a token through mapped routes.
	AllowMissingCredential bool
	RateLimitPerMinute     int
	AllowedOrigins         []string
}

// NewMiddlewares creates a new instance of middlewares with dependencies
func NewMiddlewares(deps Dependencies) Middlewares {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &middlewares{
		cache:                  deps.Cache,
		logger:                 logger,
		verifier:               deps.Verifier,
		allowMissingCredential: deps.AllowMissingCredential,
		rateLimitPerMinute:     int64(deps.RateLimitPerMinute),
		allowedOrigins:         deps.AllowedOrigins,
	}
}

// middlewares is the concrete implementation of Middlewares interface
type middlewares struct {
	cache                  cache.Client
	logger                 log.Logger
	verifier               TokenVerifier
	allowMissingCredential bool
	rateLimitPerMinute     int64
	allowedOrigins         []string
}
