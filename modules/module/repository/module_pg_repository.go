package repository

import (
	"context"

	"identity-service/database"
	"identity-service/domain"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	sqlHandler *database.SQLHandler[domain.Module, domain.ModuleFilter]
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	sqlHandler := database.NewSQLHandler[domain.Module](db, applyFilter)
	return &ModuleRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.ModuleFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("id IN (?)", filter.IDIn)
	}
	if filter.Name != nil {
		qb = qb.Where("name = ?", *filter.Name)
	}
	return qb
}

func (r *ModuleRepository) FindByID(ctx context.Context, moduleID string, option *domain.FindOneOption) (*domain.Module, error) {
	return r.sqlHandler.FindByID(ctx, moduleID, option)
}

func (r *ModuleRepository) FindMany(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindManyOption) ([]*domain.Module, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

// Upsert inserts the catalog entries and renames entries whose id already exists.
func (r *ModuleRepository) Upsert(ctx context.Context, modules []*domain.Module) (int64, error) {
	return r.sqlHandler.Upsert(ctx, modules, []string{"id"}, []string{"name", "updated_at"})
}

func (r *ModuleRepository) Count(ctx context.Context, filter *domain.ModuleFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}
