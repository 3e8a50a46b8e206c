package middleware

import (
	"identity-service/common"
	"identity-service/domain"
	"identity-service/pkg/log"

	"github.com/gin-gonic/gin"
)

// Authorizer checks the bearer token of every request whose route is in rules.
//
// Unregistered routes pass untouched. A request without a token on a
// registered route is rejected with ErrMissingCredential unless the rule
// allows anonymous access or the service runs with the allow policy. A
// malformed Authorization header or a token that fails verification is
// rejected with its typed token error, even on anonymous routes. A valid
// token that lacks the rule's grant is rejected with ErrPermissionDenied,
// unless the rule only asks for authentication.
// On success the decoded claims are stored under common.ClaimsContextKey.
func (m *middlewares) Authorizer(rules *RouteRules) gin.HandlerFunc {
	return func(c *gin.Context) {
		rule, ok := rules.Lookup(c.Request.Method, c.FullPath())
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		token, err := common.ExtractBearerToken(c)
		if err != nil {
			common.ResponseError(c, err)
			return
		}
		if token == "" {
			if rule.AllowAnonymous || m.allowMissingCredential {
				m.logger.WarnContext(ctx, "request without credential let through",
					log.Method(rule.Method),
					log.String("route", rule.Path),
				)
				c.Next()
				return
			}
			common.ResponseError(c, domain.ErrMissingCredential)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			common.ResponseError(c, err)
			return
		}

		c.Set(common.ClaimsContextKey, claims)
		c.Request = c.Request.WithContext(log.ContextWithUserID(ctx, claims.UserID))

		if rule.AuthenticateOnly {
			c.Next()
			return
		}
		if domain.Authorize(claims, rule.ModuleID, rule.Action) == domain.Deny {
			common.ResponseError(c, domain.ErrPermissionDenied.
				WithReasonf("%s on module %s is not granted to role %s", rule.Action, rule.ModuleID, claims.RoleID))
			return
		}
		c.Next()
	}
}
