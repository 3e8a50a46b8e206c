package repository

import (
	"context"

	"identity-service/database"
	"identity-service/domain"

	"gorm.io/gorm"
)

type RoleRepository struct {
	sqlHandler *database.SQLHandler[domain.Role, domain.RoleFilter]
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	sqlHandler := database.NewSQLHandler[domain.Role](db, applyFilter)
	return &RoleRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.RoleFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.IDNe != nil {
		qb = qb.Where("id != ?", *filter.IDNe)
	}
	if filter.Name != nil {
		qb = qb.Where("name = ?", *filter.Name)
	}
	if filter.GlobalOnly {
		qb = qb.Where("company_id IS NULL")
	} else if filter.CompanyID != nil {
		qb = qb.Where("company_id = ?", *filter.CompanyID)
	}
	return qb
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	return r.sqlHandler.Create(ctx, role)
}

func (r *RoleRepository) FindByID(ctx context.Context, roleID string, option *domain.FindOneOption) (*domain.Role, error) {
	return r.sqlHandler.FindByID(ctx, roleID, option)
}

func (r *RoleRepository) FindOne(ctx context.Context, filter *domain.RoleFilter, option *domain.FindOneOption) (*domain.Role, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *RoleRepository) FindMany(ctx context.Context, filter *domain.RoleFilter, option *domain.FindManyOption) ([]*domain.Role, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	return r.sqlHandler.Update(ctx, role)
}

// DeleteByID reports how many rows were removed so callers can verify the delete.
func (r *RoleRepository) DeleteByID(ctx context.Context, roleID string) (int64, error) {
	return r.sqlHandler.DeleteByID(ctx, roleID)
}
