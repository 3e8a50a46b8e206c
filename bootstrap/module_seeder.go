package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"identity-service/config"
	"identity-service/domain"
	"identity-service/pkg/log"

	"github.com/samber/lo"
)

type ModuleCatalog interface {
	Seed(ctx context.Context, catalog []*domain.Module) (int, error)
}

// ModuleSeeder writes the configured module catalog at startup. Entries are
// upserted by id so renames in config reach existing databases.
type ModuleSeeder struct {
	catalog ModuleCatalog
	entries []config.ModuleEntry
	logger  log.Logger
}

func NewModuleSeeder(catalog ModuleCatalog, entries []config.ModuleEntry, logger log.Logger) *ModuleSeeder {
	if len(entries) == 0 {
		entries = config.DefaultModules()
	}
	return &ModuleSeeder{
		catalog: catalog,
		entries: entries,
		logger:  logger,
	}
}

func (s *ModuleSeeder) Seed(ctx context.Context) error {
	modules, err := toModules(s.entries)
	if err != nil {
		return err
	}

	s.logger.Info("Seeding module catalog...", log.Int("modules", len(modules)))
	n, err := s.catalog.Seed(ctx, modules)
	if err != nil {
		return err
	}
	s.logger.Info("Module catalog seeded", log.Int("upserted", n))
	return nil
}

func toModules(entries []config.ModuleEntry) ([]*domain.Module, error) {
	if dup := lo.FindDuplicatesBy(entries, func(e config.ModuleEntry) string { return e.ID }); len(dup) > 0 {
		return nil, fmt.Errorf("duplicate module id %q in catalog", dup[0].ID)
	}
	modules := make([]*domain.Module, 0, len(entries))
	for _, e := range entries {
		id, name := strings.TrimSpace(e.ID), strings.TrimSpace(e.Name)
		if id == "" || name == "" {
			return nil, fmt.Errorf("module entry %+v needs both id and name", e)
		}
		modules = append(modules, &domain.Module{ID: id, Name: name})
	}
	return modules, nil
}
