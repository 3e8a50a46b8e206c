package domain

import (
	"sort"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Actions is the CRUD flag set granted on one module.
type Actions struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

func FullAccess() Actions {
	return Actions{Create: true, Read: true, Update: true, Delete: true}
}

// Allows reads the flag named by action. Unknown actions are never allowed.
func (a Actions) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return a.Create
	case ActionRead:
		return a.Read
	case ActionUpdate:
		return a.Update
	case ActionDelete:
		return a.Delete
	default:
		return false
	}
}

// Permission holds the CRUD flags of one (role, module) pair.
// The unique index keeps at most one row per pair.
type Permission struct {
	SQLModel
	RoleID   string  `json:"role_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_permissions_role_module"`
	ModuleID string  `json:"module_id" gorm:"type:varchar(20);not null;uniqueIndex:idx_permissions_role_module"`
	Actions  Actions `json:"actions" gorm:"embedded;embeddedPrefix:can_"`
}

type PermissionFilter struct {
	ID       *string  `json:"id,omitempty"`
	IDIn     []string `json:"id_in,omitempty"`
	RoleID   *string  `json:"role_id,omitempty"`
	ModuleID *string  `json:"module_id,omitempty"`
}

// RolePermission is a permission row joined with its module name.
type RolePermission struct {
	PermissionID string  `json:"permission_id"`
	ModuleID     string  `json:"module_id"`
	ModuleName   string  `json:"module_name"`
	Actions      Actions `json:"actions"`
	UpdatedAt    int64   `json:"updated_at"`
}

// PermissionInput is one requested (module, actions) pair of a role create or update.
// All four flags must be present.
type PermissionInput struct {
	ModuleID string        `json:"module_id" binding:"required,module_id"`
	Actions  *ActionsInput `json:"actions" binding:"required"`
}

type ActionsInput struct {
	Create *bool `json:"create" binding:"required"`
	Read   *bool `json:"read" binding:"required"`
	Update *bool `json:"update" binding:"required"`
	Delete *bool `json:"delete" binding:"required"`
}

func (in *ActionsInput) ToActions() Actions {
	if in == nil {
		return Actions{}
	}
	deref := func(b *bool) bool { return b != nil && *b }
	return Actions{
		Create: deref(in.Create),
		Read:   deref(in.Read),
		Update: deref(in.Update),
		Delete: deref(in.Delete),
	}
}

func NewActionsInput(actions Actions) *ActionsInput {
	return &ActionsInput{
		Create: &actions.Create,
		Read:   &actions.Read,
		Update: &actions.Update,
		Delete: &actions.Delete,
	}
}

// PermissionClaim is the token representation of a permission.
type PermissionClaim struct {
	ModuleID string  `json:"moduleId"`
	Actions  Actions `json:"actions"`
}

// NewPermissionClaims snapshots permission rows into claims ordered by module id.
func NewPermissionClaims(permissions []*Permission) []PermissionClaim {
	claims := make([]PermissionClaim, 0, len(permissions))
	for _, p := range permissions {
		if p == nil {
			continue
		}
		claims = append(claims, PermissionClaim{ModuleID: p.ModuleID, Actions: p.Actions})
	}
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].ModuleID < claims[j].ModuleID
	})
	return claims
}

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Authorize decides whether claims grant action on moduleID.
// A module missing from the claims, a false flag or an unknown action all deny.
func Authorize(claims *AccessClaims, moduleID string, action Action) Decision {
	if claims == nil {
		return Deny
	}
	entry, ok := claims.Lookup(moduleID)
	if !ok {
		return Deny
	}
	return Decision(entry.Actions.Allows(action))
}
