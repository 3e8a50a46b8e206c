package repository

import (
	"context"

	"identity-service/database"
	"identity-service/domain"

	"gorm.io/gorm"
)

type PermissionRepository struct {
	sqlHandler *database.SQLHandler[domain.Permission, domain.PermissionFilter]
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	sqlHandler := database.NewSQLHandler[domain.Permission](db, applyFilter)
	return &PermissionRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.PermissionFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("id IN (?)", filter.IDIn)
	}
	if filter.RoleID != nil {
		qb = qb.Where("role_id = ?", *filter.RoleID)
	}
	if filter.ModuleID != nil {
		qb = qb.Where("module_id = ?", *filter.ModuleID)
	}
	return qb
}

func (r *PermissionRepository) Create(ctx context.Context, permission *domain.Permission) error {
	return r.sqlHandler.Create(ctx, permission)
}

func (r *PermissionRepository) CreateMany(ctx context.Context, permissions []*domain.Permission) error {
	return r.sqlHandler.CreateMany(ctx, permissions)
}

func (r *PermissionRepository) FindOne(ctx context.Context, filter *domain.PermissionFilter, option *domain.FindOneOption) (*domain.Permission, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *PermissionRepository) FindMany(ctx context.Context, filter *domain.PermissionFilter, option *domain.FindManyOption) ([]*domain.Permission, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

// UpdateActions overwrites the four flags of one permission row.
func (r *PermissionRepository) UpdateActions(ctx context.Context, permissionID string, actions domain.Actions) (int64, error) {
	return r.sqlHandler.UpdateFields(ctx, permissionID, map[string]any{
		"can_create": actions.Create,
		"can_read":   actions.Read,
		"can_update": actions.Update,
		"can_delete": actions.Delete,
	})
}

// DeleteMany reports the number of rows actually removed.
func (r *PermissionRepository) DeleteMany(ctx context.Context, filter *domain.PermissionFilter) (int64, error) {
	return r.sqlHandler.DeleteMany(ctx, filter)
}

func (r *PermissionRepository) Count(ctx context.Context, filter *domain.PermissionFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}
