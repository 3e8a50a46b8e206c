package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"

	"identity-service/database"
	"identity-service/domain"
	"identity-service/pkg/log"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentPermissionWrites bounds the goroutines creating the
// permissions of a new role.
const maxConcurrentPermissionWrites = 8

type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	FindByID(ctx context.Context, roleID string, option *domain.FindOneOption) (*domain.Role, error)
	FindOne(ctx context.Context, filter *domain.RoleFilter, option *domain.FindOneOption) (*domain.Role, error)
	FindMany(ctx context.Context, filter *domain.RoleFilter, option *domain.FindManyOption) ([]*domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	DeleteByID(ctx context.Context, roleID string) (int64, error)
}

type PermissionRepository interface {
	Create(ctx context.Context, permission *domain.Permission) error
	FindOne(ctx context.Context, filter *domain.PermissionFilter, option *domain.FindOneOption) (*domain.Permission, error)
	FindMany(ctx context.Context, filter *domain.PermissionFilter, option *domain.FindManyOption) ([]*domain.Permission, error)
	UpdateActions(ctx context.Context, permissionID string, actions domain.Actions) (int64, error)
	DeleteMany(ctx context.Context, filter *domain.PermissionFilter) (int64, error)
}

type IdentityRepository interface {
	Exists(ctx context.Context, filter *domain.IdentityFilter) (bool, error)
}

// ModuleCatalog resolves module ids. domain.ModuleUsecase satisfies it.
type ModuleCatalog interface {
	List(ctx context.Context) ([]*domain.Module, error)
	GetByID(ctx context.Context, moduleID string) (*domain.Module, error)
}

type RequestValidator interface {
	Validate(obj any) error
}

type AdminRoleConfig interface {
	AdminRoleName() string
	AdminDeniedModuleIDs() []string
}

type Dependencies struct {
	RoleRepo       RoleRepository
	PermissionRepo PermissionRepository
	IdentityRepo   IdentityRepository
	Modules        ModuleCatalog
	TxManager      domain.TxManager
	Validator      RequestValidator
	Config         AdminRoleConfig
	Logger         log.Logger
}

type roleUsecase struct {
	roleRepo       RoleRepository
	permissionRepo PermissionRepository
	identityRepo   IdentityRepository
	modules        ModuleCatalog
	tx             domain.TxManager
	validator      RequestValidator
	cfg            AdminRoleConfig
	logger         log.Logger
}

func NewRoleUsecase(deps Dependencies) domain.RoleUsecase {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &roleUsecase{
		roleRepo:       deps.RoleRepo,
		permissionRepo: deps.PermissionRepo,
		identityRepo:   deps.IdentityRepo,
		modules:        deps.Modules,
		tx:             deps.TxManager,
		validator:      deps.Validator,
		cfg:            deps.Config,
		logger:         logger,
	}
}

// Create stores a company role and one permission row per requested module.
// Permission rows are written concurrently; the first failure is returned and
// rows already written are kept.
func (u *roleUsecase) Create(ctx context.Context, req *domain.CreateRoleRequest) (*domain.RoleDetail, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	companyID := strings.TrimSpace(req.CompanyID)
	name := strings.TrimSpace(req.Name)
	if err := u.ensureNameAvailable(ctx, &companyID, name, ""); err != nil {
		return nil, err
	}

	role := &domain.Role{
		SQLModel:  domain.SQLModel{ID: uuid.NewString()},
		Name:      name,
		CompanyID: &companyID,
	}
	if err := u.roleRepo.Create(ctx, role); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, domain.ErrDuplicateRole.WithWrap(err)
		}
		return nil, domain.ErrDatabase.WithWrap(err)
	}

	permissions, err := u.createPermissions(ctx, role.ID, req.Permissions)
	if err != nil {
		u.logger.ErrorContext(ctx, "failed to create role permissions",
			log.RoleID(role.ID),
			log.CompanyID(companyID),
			log.Error(err),
		)
		return nil, err
	}

	u.logger.InfoContext(ctx, "role created",
		log.RoleID(role.ID),
		log.CompanyID(companyID),
		log.Int("permissions", len(permissions)),
	)
	return &domain.RoleDetail{Role: role, Permissions: permissions}, nil
}

func (u *roleUsecase) createPermissions(ctx context.Context, roleID string, inputs []domain.PermissionInput) ([]*domain.Permission, error) {
	permissions := make([]*domain.Permission, len(inputs))

	// A plain group: one failed module must not cancel the writes of the others.
	var g errgroup.Group
	g.SetLimit(maxConcurrentPermissionWrites)
	if database.TxFromContext(ctx) != nil {
		// one transaction is one connection
		g.SetLimit(1)
	}

	for i, input := range inputs {
		g.Go(func() error {
			if _, err := u.modules.GetByID(ctx, input.ModuleID); err != nil {
				return err
			}
			permission := &domain.Permission{
				SQLModel: domain.SQLModel{ID: uuid.NewString()},
				RoleID:   roleID,
				ModuleID: input.ModuleID,
				Actions:  input.Actions.ToActions(),
			}
			if err := u.permissionRepo.Create(ctx, permission); err != nil {
				return domain.ErrDatabase.WithWrap(err).WithDetail("module_id", input.ModuleID)
			}
			permissions[i] = permission
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return permissions, nil
}

// Update renames the role and reconciles the listed permissions one by one:
// an existing (role, module) row gets its four flags overwritten, a missing
// one is created. Permissions not listed are left as they are.
func (u *roleUsecase) Update(ctx context.Context, roleID string, req *domain.UpdateRoleRequest) (*domain.RoleDetail, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	role, err := u.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name != role.Name {
		if err := u.ensureNameAvailable(ctx, role.CompanyID, name, role.ID); err != nil {
			return nil, err
		}
	}
	role.Name = name
	if err := u.roleRepo.Update(ctx, role); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, domain.ErrDuplicateRole.WithWrap(err)
		}
		return nil, domain.ErrDatabase.WithWrap(err)
	}

	var created, updated int
	for _, input := range req.Permissions {
		wasCreated, err := u.reconcilePermission(ctx, role.ID, input)
		if err != nil {
			u.logger.ErrorContext(ctx, "failed to reconcile role permission",
				log.RoleID(role.ID),
				log.ModuleID(input.ModuleID),
				log.Error(err),
			)
			return nil, err
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	permissions, err := u.permissionRepo.FindMany(ctx, &domain.PermissionFilter{RoleID: &role.ID}, nil)
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}

	u.logger.InfoContext(ctx, "role updated",
		log.RoleID(role.ID),
		log.Int("permissions_created", created),
		log.Int("permissions_updated", updated),
	)
	return &domain.RoleDetail{Role: role, Permissions: sortPermissions(permissions)}, nil
}

func (u *roleUsecase) reconcilePermission(ctx context.Context, roleID string, input domain.PermissionInput) (bool, error) {
	if _, err := u.modules.GetByID(ctx, input.ModuleID); err != nil {
		return false, err
	}

	actions := input.Actions.ToActions()
	existing, err := u.permissionRepo.FindOne(ctx, &domain.PermissionFilter{
		RoleID:   &roleID,
		ModuleID: &input.ModuleID,
	}, nil)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return false, domain.ErrDatabase.WithWrap(err)
	}

	if existing != nil {
		updated, err := u.permissionRepo.UpdateActions(ctx, existing.ID, actions)
		if err != nil {
			return false, domain.ErrDatabase.WithWrap(err)
		}
		if updated != 1 {
			return false, domain.ErrUpdatePermissionFailed.
				WithReasonf("permission %s of module %s updated %d rows", existing.ID, input.ModuleID, updated)
		}
		return false, nil
	}

	err = u.permissionRepo.Create(ctx, &domain.Permission{
		SQLModel: domain.SQLModel{ID: uuid.NewString()},
		RoleID:   roleID,
		ModuleID: input.ModuleID,
		Actions:  actions,
	})
	if err != nil {
		return false, domain.ErrDatabase.WithWrap(err)
	}
	return true, nil
}

// Delete removes a role no identity is bound to. Its permissions and the role
// row go in one transaction; if fewer permission rows are deleted than were
// found, or the role row is not removed exactly once, nothing is committed.
func (u *roleUsecase) Delete(ctx context.Context, roleID string) error {
	role, err := u.findRole(ctx, roleID)
	if err != nil {
		return err
	}

	bound, err := u.identityRepo.Exists(ctx, &domain.IdentityFilter{RoleID: &role.ID})
	if err != nil {
		return domain.ErrDatabase.WithWrap(err)
	}
	if bound {
		return domain.ErrBoundIdentityExists.WithReasonf("role %s is still assigned", role.ID)
	}

	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		permissions, err := u.permissionRepo.FindMany(ctx, &domain.PermissionFilter{RoleID: &role.ID}, nil)
		if err != nil {
			return domain.ErrDatabase.WithWrap(err)
		}

		if len(permissions) > 0 {
			ids := lo.Map(permissions, func(p *domain.Permission, _ int) string { return p.ID })
			deleted, err := u.permissionRepo.DeleteMany(ctx, &domain.PermissionFilter{IDIn: ids})
			if err != nil {
				return domain.ErrDatabase.WithWrap(err)
			}
			if deleted != int64(len(permissions)) {
				return domain.ErrDeletePermissionsFailed.WithReasonf("deleted %d of %d permissions", deleted, len(permissions))
			}
		}

		deleted, err := u.roleRepo.DeleteByID(ctx, role.ID)
		if err != nil {
			return domain.ErrDatabase.WithWrap(err)
		}
		if deleted != 1 {
			return domain.ErrDeleteRoleFailed.WithReasonf("deleted %d role rows", deleted)
		}
		return nil
	})
	if err != nil {
		u.logger.WarnContext(ctx, "role delete aborted", log.RoleID(role.ID), log.Error(err))
		return err
	}

	u.logger.InfoContext(ctx, "role deleted", log.RoleID(role.ID))
	return nil
}

// CreateAdminRole creates the company's admin role: full access on every
// catalog module except the denied ones, which get all four flags false.
func (u *roleUsecase) CreateAdminRole(ctx context.Context, companyID string) (*domain.RoleDetail, error) {
	catalog, err := u.modules.List(ctx)
	if err != nil {
		return nil, err
	}

	denied := lo.Keyify(u.cfg.AdminDeniedModuleIDs())
	inputs := make([]domain.PermissionInput, 0, len(catalog))
	for _, module := range catalog {
		actions := domain.FullAccess()
		if _, ok := denied[module.ID]; ok {
			actions = domain.Actions{}
		}
		inputs = append(inputs, domain.PermissionInput{
			ModuleID: module.ID,
			Actions:  domain.NewActionsInput(actions),
		})
	}

	return u.Create(ctx, &domain.CreateRoleRequest{
		CompanyID:   companyID,
		Name:        u.cfg.AdminRoleName(),
		Permissions: inputs,
	})
}

func (u *roleUsecase) ListByCompany(ctx context.Context, companyID string) ([]*domain.Role, error) {
	if err := u.validator.Validate(&domain.ListRolesRequest{CompanyID: companyID}); err != nil {
		return nil, err
	}

	roles, err := u.roleRepo.FindMany(ctx, &domain.RoleFilter{CompanyID: &companyID}, &domain.FindManyOption{
		Sort: []string{"name"},
	})
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	return roles, nil
}

// GetPermissions lists the role's permissions with their module names.
// Rows whose module is no longer in the catalog are skipped.
func (u *roleUsecase) GetPermissions(ctx context.Context, roleID string) ([]*domain.RolePermission, error) {
	role, err := u.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	permissions, err := u.permissionRepo.FindMany(ctx, &domain.PermissionFilter{RoleID: &role.ID}, nil)
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	catalog, err := u.modules.List(ctx)
	if err != nil {
		return nil, err
	}
	modules := lo.KeyBy(catalog, func(m *domain.Module) string { return m.ID })

	out := make([]*domain.RolePermission, 0, len(permissions))
	for _, p := range sortPermissions(permissions) {
		module, ok := modules[p.ModuleID]
		if !ok {
			continue
		}
		out = append(out, &domain.RolePermission{
			PermissionID: p.ID,
			ModuleID:     p.ModuleID,
			ModuleName:   module.Name,
			Actions:      p.Actions,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return out, nil
}

func (u *roleUsecase) findRole(ctx context.Context, roleID string) (*domain.Role, error) {
	role, err := u.roleRepo.FindByID(ctx, roleID, nil)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrRoleNotFound.WithReasonf("role %s does not exist", roleID)
	}
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	return role, nil
}

// ensureNameAvailable fails with ErrDuplicateRole when another role of the
// same company (or another global role) already uses name.
func (u *roleUsecase) ensureNameAvailable(ctx context.Context, companyID *string, name, exceptID string) error {
	filter := &domain.RoleFilter{Name: &name, CompanyID: companyID, GlobalOnly: companyID == nil}
	if exceptID != "" {
		filter.IDNe = &exceptID
	}

	existing, err := u.roleRepo.FindOne(ctx, filter, nil)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrDatabase.WithWrap(err)
	}
	if existing != nil {
		return domain.ErrDuplicateRole.WithReasonf("role %q already exists", name)
	}
	return nil
}

func sortPermissions(permissions []*domain.Permission) []*domain.Permission {
	sort.Slice(permissions, func(i, j int) bool {
		return lessModuleID(permissions[i].ModuleID, permissions[j].ModuleID)
	})
	return permissions
}

// lessModuleID orders numeric ids numerically ("2" < "10").
func lessModuleID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
