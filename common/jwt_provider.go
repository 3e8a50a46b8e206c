package common

import (
	"errors"
	"fmt"
	"time"

	"identity-service/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JwtProviderConfig interface {
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	TokenIssuer() string
}

type JWTOption func(*JWTProvider)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(p *JWTProvider) {
		p.now = now
	}
}

// JWTProvider issues and verifies HS256 access tokens carrying a permission snapshot.
type JWTProvider struct {
	cfg JwtProviderConfig
	now func() time.Time
}

func NewJWTProvider(cfg JwtProviderConfig, opts ...JWTOption) *JWTProvider {
	p := &JWTProvider{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (j *JWTProvider) ExpiresIn() time.Duration {
	return j.cfg.AccessTokenExpiresIn()
}

// Issue signs a token for identity. The permission set is embedded as-is;
// later changes to the role are not reflected until a new token is issued.
func (j *JWTProvider) Issue(identity *domain.Identity, permissions []*domain.Permission, roleName string) (string, error) {
	if identity == nil {
		return "", domain.ErrTokenSigningFailed.WithReason("identity is required")
	}

	now := j.now()
	claims := domain.AccessClaims{
		UserID:      identity.ID,
		RoleID:      identity.RoleID,
		RoleName:    roleName,
		Permissions: domain.NewPermissionClaims(permissions),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.cfg.TokenIssuer(),
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.cfg.AccessTokenExpiresIn())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.cfg.AccessTokenSecret()))
	if err != nil {
		return "", domain.ErrTokenSigningFailed.WithWrap(err)
	}
	return signed, nil
}

// Verify checks the signature first and the claims second. Any failure
// yields a token error; no claims are returned alongside an error.
func (j *JWTProvider) Verify(tokenStr string) (*domain.AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(j.now),
	}
	if issuer := j.cfg.TokenIssuer(); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &domain.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(j.cfg.AccessTokenSecret()), nil
	}, opts...)
	if err != nil {
		return nil, toTokenError(err)
	}

	claims, ok := token.Claims.(*domain.AccessClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.UserID == "" || claims.RoleID == "" {
		return nil, domain.ErrInvalidToken.WithReason("token is missing user or role")
	}
	return claims, nil
}

func toTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired.WithWrap(err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.ErrTokenMalformed.WithWrap(err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenSignatureInvalid.WithWrap(err)
	default:
		return domain.ErrInvalidToken.WithWrap(err)
	}
}
