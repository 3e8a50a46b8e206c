package federated

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Authenticator resolves an assertion issued by an external identity
// provider to the username it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, assertion string) (string, error)
}

type Config interface {
	OIDCIssuer() string
	OIDCAudience() string
	OIDCPublicKeyPath() string
}

type idTokenClaims struct {
	PreferredUsername string `json:"preferred_username,omitempty"`
	UniqueName        string `json:"unique_name,omitempty"`
	UPN               string `json:"upn,omitempty"`
	jwt.RegisteredClaims
}

func (c *idTokenClaims) username() string {
	for _, candidate := range []string{c.PreferredUsername, c.UniqueName, c.UPN} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name
		}
	}
	return ""
}

type Option func(*IDTokenAuthenticator)

func WithClock(now func() time.Time) Option {
	return func(a *IDTokenAuthenticator) {
		a.now = now
	}
}

// IDTokenAuthenticator verifies RS256 ID tokens against a single provider key.
type IDTokenAuthenticator struct {
	key      *rsa.PublicKey
	issuer   string
	audience string
	now      func() time.Time
}

func NewIDTokenAuthenticator(key *rsa.PublicKey, issuer, audience string, opts ...Option) *IDTokenAuthenticator {
	a := &IDTokenAuthenticator{
		key:      key,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromConfig loads the provider key from the configured PEM file.
func NewFromConfig(cfg Config, opts ...Option) (*IDTokenAuthenticator, error) {
	pem, err := os.ReadFile(cfg.OIDCPublicKeyPath())
	if err != nil {
		return nil, errors.Wrap(err, "read oidc public key")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, errors.Wrap(err, "parse oidc public key")
	}
	return NewIDTokenAuthenticator(key, cfg.OIDCIssuer(), cfg.OIDCAudience(), opts...), nil
}

func (a *IDTokenAuthenticator) Authenticate(ctx context.Context, assertion string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := &idTokenClaims{}
	_, err := jwt.ParseWithClaims(assertion, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.key, nil
	}, opts...)
	if err != nil {
		return "", errors.Wrap(err, "verify id token")
	}

	username := claims.username()
	if username == "" {
		return "", errors.New("id token carries no username claim")
	}
	return username, nil
}
