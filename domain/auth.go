package domain

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

/****************************
*        Auth errors        *
****************************/
var (
	ErrInvalidCredentials = &DetailedError{
		IDField:         "INVALID_CREDENTIALS",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Invalid username or password",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindUnauthorized,
	}
	ErrInvalidToken = &DetailedError{
		IDField:         "INVALID_TOKEN",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Invalid token",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindInvalidToken,
	}
	ErrTokenMalformed = &DetailedError{
		IDField:         "TOKEN_MALFORMED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Token could not be decoded",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindInvalidToken,
	}
	ErrTokenSignatureInvalid = &DetailedError{
		IDField:         "TOKEN_SIGNATURE_INVALID",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Token signature is invalid",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindInvalidToken,
	}
	ErrTokenExpired = &DetailedError{
		IDField:         "TOKEN_EXPIRED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Token has expired",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindExpiredToken,
	}
	ErrTokenSigningFailed = &DetailedError{
		IDField:         "TOKEN_SIGNING_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to sign token",
		StatusCodeField: http.StatusInternalServerError,
		KindField:       KindInternal,
	}
	ErrMissingCredential = &DetailedError{
		IDField:         "MISSING_CREDENTIAL",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Authorization token is required",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindUnauthorized,
	}
	ErrPermissionDenied = &DetailedError{
		IDField:         "PERMISSION_DENIED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "You do not have permission to perform this action",
		StatusCodeField: http.StatusForbidden,
		KindField:       KindForbidden,
	}
	ErrIdentityMismatch = &DetailedError{
		IDField:         "IDENTITY_MISMATCH",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Token does not match a known user and role",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindInvalidToken,
	}
	ErrFederatedLoginFailed = &DetailedError{
		IDField:         "FEDERATED_LOGIN_FAILED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Federated login failed",
		StatusCodeField: http.StatusUnauthorized,
		KindField:       KindUnauthorized,
	}
	ErrFederatedLoginDisabled = &DetailedError{
		IDField:         "FEDERATED_LOGIN_DISABLED",
		StatusDescField: http.StatusText(http.StatusNotImplemented),
		ErrorField:      "Federated login is not configured",
		StatusCodeField: http.StatusNotImplemented,
		KindField:       KindInternal,
	}
)

/***************************************
*       Auth entities and types       *
***************************************/

// AccessClaims is the payload of an access token. The permission set is a
// snapshot taken at issuance: later role changes only take effect once the
// token is reissued, and expiry is the only way a token stops being valid.
type AccessClaims struct {
	UserID      string            `json:"userId"`
	RoleID      string            `json:"roleId"`
	RoleName    string            `json:"roleName,omitempty"`
	Permissions []PermissionClaim `json:"permissions"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) Lookup(moduleID string) (PermissionClaim, bool) {
	for _, p := range c.Permissions {
		if p.ModuleID == moduleID {
			return p, true
		}
	}
	return PermissionClaim{}, false
}

/*************************************
*  Auth usecase interfaces and types *
**************************************/
type AuthUsecase interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	FederatedLogin(ctx context.Context, req *FederatedLoginRequest) (*LoginResponse, error)
	Protect(ctx context.Context, token string) (*AccessClaims, error)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,not_empty,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

type FederatedLoginRequest struct {
	IDToken string `json:"id_token" binding:"required,jwt"`
}

type ProtectRequest struct {
	Token string `json:"token" binding:"required"`
}

type LoginResponse struct {
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	CompanyID    string            `json:"company_id"`
	ProfilePhoto string            `json:"profile_photo,omitempty"`
	Role         string            `json:"role"`
	AccessToken  string            `json:"access_token"`
	ExpiresIn    int64             `json:"expires_in"`
	Permissions  []PermissionClaim `json:"permissions"`
}
