package domain

import (
	"context"
	"net/http"
)

/****************************
*        Role errors        *
****************************/
var (
	ErrRoleNotFound = &DetailedError{
		IDField:         "ROLE_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Role not found",
		StatusCodeField: http.StatusNotFound,
		KindField:       KindDataValidation,
	}
	ErrDuplicateRole = &DetailedError{
		IDField:         "DUPLICATE_ROLE",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "A role with this name already exists for the company",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}
	ErrBoundIdentityExists = &DetailedError{
		IDField:         "BOUND_USER_EXISTS",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Role is still assigned to one or more users",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}
	ErrDeletePermissionsFailed = &DetailedError{
		IDField:         "DELETE_PERMISSIONS_FAILED",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Not all permissions of the role could be deleted",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}
	ErrUpdatePermissionFailed = &DetailedError{
		IDField:         "UPDATE_PERMISSION_FAILED",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Permission could not be updated",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}
	ErrDeleteRoleFailed = &DetailedError{
		IDField:         "DELETE_ROLE_FAILED",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Role could not be deleted",
		StatusCodeField: http.StatusConflict,
		KindField:       KindDataValidation,
	}
)

/***************************************
*       Role entities and types       *
***************************************/

// Role is a company scoped bundle of per-module permissions.
// A nil CompanyID marks a global default role.
type Role struct {
	SQLModel
	Name      string  `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_roles_company_name"`
	CompanyID *string `json:"company_id" gorm:"type:varchar(64);uniqueIndex:idx_roles_company_name"`
}

func (r *Role) BelongsTo(companyID string) bool {
	return r.CompanyID != nil && *r.CompanyID == companyID
}

type RoleFilter struct {
	ID        *string `json:"id,omitempty"`
	IDNe      *string `json:"id_ne,omitempty"`
	Name      *string `json:"name,omitempty"`
	CompanyID *string `json:"company_id,omitempty"`

	// GlobalOnly restricts the query to roles without a company.
	GlobalOnly bool `json:"global_only,omitempty"`
}

// RoleDetail is a role together with the permission rows attached to it.
type RoleDetail struct {
	Role        *Role         `json:"role"`
	Permissions []*Permission `json:"permissions"`
}

/*************************************
*  Role usecase interfaces and types *
**************************************/
type RoleUsecase interface {
	Create(ctx context.Context, req *CreateRoleRequest) (*RoleDetail, error)
	Update(ctx context.Context, roleID string, req *UpdateRoleRequest) (*RoleDetail, error)
	Delete(ctx context.Context, roleID string) error
	CreateAdminRole(ctx context.Context, companyID string) (*RoleDetail, error)
	ListByCompany(ctx context.Context, companyID string) ([]*Role, error)
	GetPermissions(ctx context.Context, roleID string) ([]*RolePermission, error)
}

type CreateRoleRequest struct {
	CompanyID   string            `json:"company_id" binding:"required,not_empty,max=64"`
	Name        string            `json:"name" binding:"required,not_empty,max=100"`
	Permissions []PermissionInput `json:"permissions" binding:"required,min=1,unique=ModuleID,dive"`
}

type UpdateRoleRequest struct {
	Name        string            `json:"name" binding:"required,not_empty,max=100"`
	Permissions []PermissionInput `json:"permissions" binding:"required,min=1,unique=ModuleID,dive"`
}

type ListRolesRequest struct {
	CompanyID string `form:"company_id" binding:"required,not_empty"`
}
