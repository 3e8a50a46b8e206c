package usecase

import (
	"context"
	"errors"
	"time"

	"identity-service/domain"
	"identity-service/pkg/cache"
	"identity-service/pkg/log"
)

var catalogCacheKey = cache.Key("modules", "catalog")

type ModuleRepository interface {
	FindByID(ctx context.Context, moduleID string, option *domain.FindOneOption) (*domain.Module, error)
	FindMany(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindManyOption) ([]*domain.Module, error)
	Upsert(ctx context.Context, modules []*domain.Module) (int64, error)
}

type moduleUsecase struct {
	repo   ModuleRepository
	cache  cache.Client
	ttl    time.Duration
	logger log.Logger
}

// NewModuleUsecase serves the catalog through cache. A nil cache reads the
// repository every time.
func NewModuleUsecase(repo ModuleRepository, cacheClient cache.Client, ttl time.Duration, logger log.Logger) domain.ModuleUsecase {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &moduleUsecase{repo: repo, cache: cacheClient, ttl: ttl, logger: logger}
}

func (u *moduleUsecase) List(ctx context.Context) ([]*domain.Module, error) {
	load := func(ctx context.Context) ([]*domain.Module, error) {
		modules, err := u.repo.FindMany(ctx, nil, &domain.FindManyOption{Sort: []string{"id"}})
		if err != nil {
			return nil, domain.ErrDatabase.WithWrap(err)
		}
		return modules, nil
	}
	if u.cache == nil {
		return load(ctx)
	}
	return cache.GetOrLoad(ctx, u.cache, catalogCacheKey, u.ttl, load)
}

func (u *moduleUsecase) GetByID(ctx context.Context, moduleID string) (*domain.Module, error) {
	module, err := u.repo.FindByID(ctx, moduleID, nil)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrModuleNotFound.WithReasonf("module %s does not exist", moduleID)
	}
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	return module, nil
}

// Seed upserts the catalog and drops the cached copy. Entries already
// present are renamed, never removed.
func (u *moduleUsecase) Seed(ctx context.Context, catalog []*domain.Module) (int, error) {
	if len(catalog) == 0 {
		return 0, nil
	}
	if _, err := u.repo.Upsert(ctx, catalog); err != nil {
		return 0, domain.ErrModuleSeedFailed.WithWrap(err)
	}

	if u.cache != nil {
		if err := u.cache.Delete(ctx, catalogCacheKey); err != nil {
			u.logger.WarnContext(ctx, "failed to invalidate module catalog cache", log.Error(err))
		}
	}
	u.logger.InfoContext(ctx, "module catalog seeded", log.Int("modules", len(catalog)))
	return len(catalog), nil
}
