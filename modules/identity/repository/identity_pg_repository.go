package repository

import (
	"context"

	"identity-service/database"
	"identity-service/domain"

	"gorm.io/gorm"
)

var searchableFields = map[string]string{
	"username": "identities.username",
}

type IdentityRepository struct {
	sqlHandler *database.SQLHandler[domain.Identity, domain.IdentityFilter]
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	sqlHandler := database.NewSQLHandler[domain.Identity](db, applyFilter)
	return &IdentityRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.IdentityFilter) *gorm.DB {
	if filter == nil {
		return qb
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.Username != nil {
		qb = qb.Where("username = ?", *filter.Username)
	}
	if filter.RoleID != nil {
		qb = qb.Where("role_id = ?", *filter.RoleID)
	}
	if filter.CompanyID != nil {
		qb = qb.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, nil, searchableFields)
	}
	return qb
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	return r.sqlHandler.Create(ctx, identity)
}

func (r *IdentityRepository) FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.Identity, error) {
	return r.sqlHandler.FindByID(ctx, userID, option)
}

func (r *IdentityRepository) FindOne(ctx context.Context, filter *domain.IdentityFilter, option *domain.FindOneOption) (*domain.Identity, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *IdentityRepository) FindPage(ctx context.Context, filter *domain.IdentityFilter, option *domain.FindPageOption) ([]*domain.Identity, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

func (r *IdentityRepository) Exists(ctx context.Context, filter *domain.IdentityFilter) (bool, error) {
	return r.sqlHandler.Exists(ctx, filter)
}
