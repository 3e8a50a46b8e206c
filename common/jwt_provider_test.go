package common

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"identity-service/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJWTConfig struct {
	secret string
	issuer string
	ttl    time.Duration
}

func (s stubJWTConfig) AccessTokenExpiresIn() time.Duration { return s.ttl }
func (s stubJWTConfig) AccessTokenSecret() string           { return s.secret }
func (s stubJWTConfig) TokenIssuer() string                 { return s.issuer }

var (
	testNow       = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testJWTConfig = stubJWTConfig{secret: "test-secret", issuer: "identity-service", ttl: 24 * time.Hour}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testIdentity() *domain.Identity {
	return &domain.Identity{SQLModel: domain.SQLModel{ID: "u-1"}, RoleID: "r-1"}
}

func managerPermissions() []*domain.Permission {
	return []*domain.Permission{
		{ModuleID: "2", Actions: domain.Actions{Read: true}},
		{ModuleID: "1", Actions: domain.Actions{Create: true, Read: true, Update: true}},
	}
}

func TestJWTProvider_RoundTrip(t *testing.T) {
	p := NewJWTProvider(testJWTConfig, WithClock(fixedClock(testNow)))

	token, err := p.Issue(testIdentity(), managerPermissions(), "Manager")
	require.NoError(t, err)

	claims, err := p.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "r-1", claims.RoleID)
	assert.Equal(t, "Manager", claims.RoleName)
	assert.Equal(t, "identity-service", claims.Issuer)
	assert.Equal(t, testNow.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	require.Len(t, claims.Permissions, 2)
	assert.Equal(t, "1", claims.Permissions[0].ModuleID)
	assert.Equal(t, domain.Actions{Create: true, Read: true, Update: true}, claims.Permissions[0].Actions)
	assert.Equal(t, domain.Allow, domain.Authorize(claims, "2", domain.ActionRead))
	assert.Equal(t, domain.Deny, domain.Authorize(claims, "2", domain.ActionDelete))
}

func TestJWTProvider_ClaimsWireFormat(t *testing.T) {
	p := NewJWTProvider(testJWTConfig, WithClock(fixedClock(testNow)))
	token, err := p.Issue(testIdentity(), managerPermissions(), "")
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	require.NoError(t, err)

	body := string(payload)
	assert.Contains(t, body, `"userId":"u-1"`)
	assert.Contains(t, body, `"roleId":"r-1"`)
	assert.Contains(t, body, `"moduleId":"1"`)
	assert.NotContains(t, body, "roleName")
}

func TestJWTProvider_Expired(t *testing.T) {
	issuer := NewJWTProvider(testJWTConfig, WithClock(fixedClock(testNow)))
	token, err := issuer.Issue(testIdentity(), managerPermissions(), "")
	require.NoError(t, err)

	later := NewJWTProvider(testJWTConfig, WithClock(fixedClock(testNow.Add(25*time.Hour))))
	claims, err := later.Verify(token)

	assert.Nil(t, claims)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.Equal(t, domain.KindExpiredToken, domain.KindOf(err))
}

func TestJWTProvider_Rejections(t *testing.T) {
	p := NewJWTProvider(testJWTConfig, WithClock(fixedClock(testNow)))
	valid, err := p.Issue(testIdentity(), managerPermissions(), "")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	escalated := jwt.NewWithClaims(jwt.SigningMethodHS256, domain.AccessClaims{
		UserID:      "u-1",
		RoleID:      "r-1",
		Permissions: []domain.PermissionClaim{{ModuleID: "3", Actions: domain.FullAccess()}},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity-service",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	})
	escalatedSigned, err := escalated.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	swappedPayload := parts[0] + "." + strings.Split(escalatedSigned, ".")[1] + "." + parts[2]

	wrongSecret := NewJWTProvider(stubJWTConfig{secret: "other-secret", issuer: "identity-service", ttl: time.Hour},
		WithClock(fixedClock(testNow)))
	foreign, err := wrongSecret.Issue(testIdentity(), managerPermissions(), "")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, domain.AccessClaims{
		UserID: "u-1",
		RoleID: "r-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity-service",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, domain.AccessClaims{
		UserID: "u-1",
		RoleID: "r-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity-service",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, domain.AccessClaims{
		UserID:           "u-1",
		RoleID:           "r-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "identity-service"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	otherIssuer, err := NewJWTProvider(stubJWTConfig{secret: "test-secret", issuer: "someone-else", ttl: time.Hour},
		WithClock(fixedClock(testNow))).Issue(testIdentity(), nil, "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "", wantErr: domain.ErrTokenMalformed},
		{name: "garbage", token: "not-a-token", wantErr: domain.ErrTokenMalformed},
		{name: "payload swapped", token: swappedPayload, wantErr: domain.ErrTokenSignatureInvalid},
		{name: "signature stripped", token: parts[0] + "." + parts[1] + ".", wantErr: domain.ErrTokenSignatureInvalid},
		{name: "wrong secret", token: foreign, wantErr: domain.ErrTokenSignatureInvalid},
		{name: "alg none", token: noneToken, wantErr: domain.ErrTokenSignatureInvalid},
		{name: "alg HS512", token: hs512, wantErr: domain.ErrTokenSignatureInvalid},
		{name: "missing exp", token: noExp, wantErr: domain.ErrInvalidToken},
		{name: "foreign issuer", token: otherIssuer, wantErr: domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := p.Verify(tt.token)
			assert.Nil(t, claims)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindInvalidToken, domain.KindOf(err))
		})
	}
}

func TestJWTProvider_IssueRequiresIdentity(t *testing.T) {
	p := NewJWTProvider(testJWTConfig)
	_, err := p.Issue(nil, nil, "")
	assert.ErrorIs(t, err, domain.ErrTokenSigningFailed)
}
