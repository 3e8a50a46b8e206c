package domain

import (
	"context"
	"net/http"
)

var (
	ErrIdentityNotFound = &DetailedError{
		IDField:         "USER_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "User not found",
		StatusCodeField: http.StatusNotFound,
		KindField:       KindDataValidation,
	}
	ErrIdentityAlreadyExists = &DetailedError{
		IDField:         "USER_EXISTS",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "User is already synced",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}
	ErrUsernameAlreadyExists = &DetailedError{
		IDField:         "USERNAME_ALREADY_EXISTS",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "User with this username already exists",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}
	ErrPasswordHashFailed = &DetailedError{
		IDField:         "PASSWORD_HASH_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to hash password",
		StatusCodeField: http.StatusInternalServerError,
		KindField:       KindInternal,
	}
)

// Identity binds an upstream user to a company and a role.
// ID is the upstream user id; PasswordHash is only set for local logins.
type Identity struct {
	SQLModel
	Username     string `json:"username" gorm:"type:varchar(100);not null;uniqueIndex"`
	CompanyID    string `json:"company_id" gorm:"type:varchar(64);index"`
	RoleID       string `json:"role_id" gorm:"type:varchar(36);not null;index"`
	ProfilePhoto string `json:"profile_photo,omitempty" gorm:"type:varchar(512)"`
	PasswordHash string `json:"-" gorm:"type:varchar(255)"`
}

func (i *Identity) HasPassword() bool {
	return i.PasswordHash != ""
}

type IdentityFilter struct {
	ID        *string `json:"id,omitempty"`
	Username  *string `json:"username,omitempty"`
	RoleID    *string `json:"role_id,omitempty"`
	CompanyID *string `json:"company_id,omitempty"`

	// SearchTerm is a case-insensitive partial match on username.
	SearchTerm *string `json:"search_term,omitempty"`
}

type IdentityUsecase interface {
	SyncUser(ctx context.Context, req *SyncUserRequest) (*Identity, error)
	SyncAdminUser(ctx context.Context, req *SyncAdminUserRequest) (*Identity, error)
	List(ctx context.Context, filter *IdentityFilter, option *FindPageOption) ([]*Identity, *Pagination, error)
}

type SyncUserRequest struct {
	UserID       string `json:"user_id" binding:"required,not_empty,max=64"`
	Username     string `json:"username" binding:"required,not_empty,max=100"`
	RoleID       string `json:"role_id" binding:"required,uuid"`
	CompanyID    string `json:"company_id" binding:"required,not_empty,max=64"`
	ProfilePhoto string `json:"profile_photo" binding:"omitempty,url"`
	Password     string `json:"password" binding:"omitempty,min=8,max=72"`
}

type SyncAdminUserRequest struct {
	UserID       string `json:"user_id" binding:"required,not_empty,max=64"`
	Username     string `json:"username" binding:"required,not_empty,max=100"`
	CompanyID    string `json:"company_id" binding:"required,not_empty,max=64"`
	ProfilePhoto string `json:"profile_photo" binding:"omitempty,url"`
	Password     string `json:"password" binding:"omitempty,min=8,max=72"`
}

type ListIdentitiesRequest struct {
	CompanyID string `form:"company_id"`
	RoleID    string `form:"role_id"`
	Search    string `form:"search" binding:"max=100"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PerPage   int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

func (r *ListIdentitiesRequest) Filter() *IdentityFilter {
	filter := &IdentityFilter{}
	if r.CompanyID != "" {
		filter.CompanyID = &r.CompanyID
	}
	if r.RoleID != "" {
		filter.RoleID = &r.RoleID
	}
	if r.Search != "" {
		filter.SearchTerm = &r.Search
	}
	return filter
}

func (r *ListIdentitiesRequest) PageOption() *FindPageOption {
	return &FindPageOption{Page: r.Page, PerPage: r.PerPage, Sort: []string{"username"}}
}
