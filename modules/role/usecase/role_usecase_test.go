package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"identity-service/domain"
	"identity-service/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoleRepo struct {
	mu        sync.Mutex
	roles     map[string]*domain.Role
	deleteErr error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[string]*domain.Role{}}
}

func (r *fakeRoleRepo) Create(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *fakeRoleRepo) FindByID(_ context.Context, roleID string, _ *domain.FindOneOption) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[roleID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *fakeRoleRepo) match(role *domain.Role, f *domain.RoleFilter) bool {
	if f == nil {
		return true
	}
	if f.ID != nil && role.ID != *f.ID {
		return false
	}
	if f.IDNe != nil && role.ID == *f.IDNe {
		return false
	}
	if f.Name != nil && role.Name != *f.Name {
		return false
	}
	if f.GlobalOnly {
		return role.CompanyID == nil
	}
	if f.CompanyID != nil && !role.BelongsTo(*f.CompanyID) {
		return false
	}
	return true
}

func (r *fakeRoleRepo) FindOne(ctx context.Context, filter *domain.RoleFilter, option *domain.FindOneOption) (*domain.Role, error) {
	roles, _ := r.FindMany(ctx, filter, nil)
	if len(roles) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return roles[0], nil
}

func (r *fakeRoleRepo) FindMany(_ context.Context, filter *domain.RoleFilter, _ *domain.FindManyOption) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Role
	for _, role := range r.roles {
		if r.match(role, filter) {
			cp := *role
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRoleRepo) Update(_ context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *fakeRoleRepo) DeleteByID(_ context.Context, roleID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.roles[roleID]; !ok {
		return 0, nil
	}
	delete(r.roles, roleID)
	return 1, nil
}

type fakePermissionRepo struct {
	mu          sync.Mutex
	permissions map[string]*domain.Permission
	creates     int
	updates     int

	// deleteShortfall makes DeleteMany report that many fewer rows than asked.
	deleteShortfall int64
	// createLatency simulates a round trip; a cancelled ctx fails the insert.
	createLatency time.Duration
	// lostUpdates makes UpdateActions match no row.
	lostUpdates bool
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{permissions: map[string]*domain.Permission{}}
}

func (r *fakePermissionRepo) Create(ctx context.Context, p *domain.Permission) error {
	if r.createLatency > 0 {
		time.Sleep(r.createLatency)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.permissions {
		if existing.RoleID == p.RoleID && existing.ModuleID == p.ModuleID {
			return errors.New("duplicate key value violates unique constraint idx_permissions_role_module")
		}
	}
	cp := *p
	r.permissions[p.ID] = &cp
	r.creates++
	return nil
}

func (r *fakePermissionRepo) match(p *domain.Permission, f *domain.PermissionFilter) bool {
	if f == nil {
		return true
	}
	if f.ID != nil && p.ID != *f.ID {
		return false
	}
	if len(f.IDIn) > 0 {
		found := false
		for _, id := range f.IDIn {
			if id == p.ID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.RoleID != nil && p.RoleID != *f.RoleID {
		return false
	}
	if f.ModuleID != nil && p.ModuleID != *f.ModuleID {
		return false
	}
	return true
}

func (r *fakePermissionRepo) FindOne(ctx context.Context, filter *domain.PermissionFilter, _ *domain.FindOneOption) (*domain.Permission, error) {
	out, _ := r.FindMany(ctx, filter, nil)
	if len(out) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return out[0], nil
}

func (r *fakePermissionRepo) FindMany(_ context.Context, filter *domain.PermissionFilter, _ *domain.FindManyOption) ([]*domain.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Permission
	for _, p := range r.permissions {
		if r.match(p, filter) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePermissionRepo) UpdateActions(_ context.Context, permissionID string, actions domain.Actions) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.permissions[permissionID]
	if !ok || r.lostUpdates {
		return 0, nil
	}
	p.Actions = actions
	r.updates++
	return 1, nil
}

func (r *fakePermissionRepo) DeleteMany(_ context.Context, filter *domain.PermissionFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, p := range r.permissions {
		if deleted+r.deleteShortfall >= int64(len(filter.IDIn)) {
			break
		}
		if r.match(p, filter) {
			delete(r.permissions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakePermissionRepo) forRole(roleID string) map[string]domain.Actions {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]domain.Actions{}
	for _, p := range r.permissions {
		if p.RoleID == roleID {
			out[p.ModuleID] = p.Actions
		}
	}
	return out
}

type fakeIdentityRepo struct {
	boundRoles map[string]bool
}

func (r *fakeIdentityRepo) Exists(_ context.Context, filter *domain.IdentityFilter) (bool, error) {
	return filter.RoleID != nil && r.boundRoles[*filter.RoleID], nil
}

type fakeCatalog struct {
	modules []*domain.Module
}

func newFakeCatalog() *fakeCatalog {
	names := []string{"Role Management", "User Management", "Admin Dashboard", "Employee Analytics",
		"Reports", "Executive Dashboard", "Surveys", "Settings"}
	c := &fakeCatalog{}
	for i, name := range names {
		c.modules = append(c.modules, &domain.Module{ID: string(rune('1' + i)), Name: name})
	}
	return c
}

func (c *fakeCatalog) List(context.Context) ([]*domain.Module, error) {
	return c.modules, nil
}

func (c *fakeCatalog) GetByID(_ context.Context, moduleID string) (*domain.Module, error) {
	for _, m := range c.modules {
		if m.ID == moduleID {
			return m, nil
		}
	}
	return nil, domain.ErrModuleNotFound
}

type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type adminConfig struct{}

func (adminConfig) AdminRoleName() string          { return "Admin" }
func (adminConfig) AdminDeniedModuleIDs() []string { return []string{"3", "6"} }

type fixture struct {
	uc          domain.RoleUsecase
	roles       *fakeRoleRepo
	permissions *fakePermissionRepo
	identities  *fakeIdentityRepo
	catalog     *fakeCatalog
	tx          *fakeTxManager
}

func newFixture() *fixture {
	f := &fixture{
		roles:       newFakeRoleRepo(),
		permissions: newFakePermissionRepo(),
		identities:  &fakeIdentityRepo{boundRoles: map[string]bool{}},
		catalog:     newFakeCatalog(),
		tx:          &fakeTxManager{},
	}
	f.uc = NewRoleUsecase(Dependencies{
		RoleRepo:       f.roles,
		PermissionRepo: f.permissions,
		IdentityRepo:   f.identities,
		Modules:        f.catalog,
		TxManager:      f.tx,
		Validator:      validator.New(),
		Config:         adminConfig{},
	})
	return f
}

func perm(moduleID string, a domain.Actions) domain.PermissionInput {
	return domain.PermissionInput{ModuleID: moduleID, Actions: domain.NewActionsInput(a)}
}

func managerRequest() *domain.CreateRoleRequest {
	return &domain.CreateRoleRequest{
		CompanyID: "c-1",
		Name:      "Manager",
		Permissions: []domain.PermissionInput{
			perm("1", domain.Actions{Create: true, Read: true, Update: true}),
			perm("2", domain.Actions{Read: true}),
		},
	}
}

func TestRoleUsecase_CreateManager(t *testing.T) {
	f := newFixture()

	detail, err := f.uc.Create(context.Background(), managerRequest())
	require.NoError(t, err)

	require.NotNil(t, detail.Role)
	assert.NotEmpty(t, detail.Role.ID)
	assert.Equal(t, "Manager", detail.Role.Name)
	assert.True(t, detail.Role.BelongsTo("c-1"))
	assert.Len(t, detail.Permissions, 2)

	rows := f.permissions.forRole(detail.Role.ID)
	assert.Equal(t, map[string]domain.Actions{
		"1": {Create: true, Read: true, Update: true},
		"2": {Read: true},
	}, rows)
}

func TestRoleUsecase_CreateRejectsDuplicateName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)

	_, err = f.uc.Create(ctx, managerRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicateRole)

	other := managerRequest()
	other.CompanyID = "c-2"
	_, err = f.uc.Create(ctx, other)
	assert.NoError(t, err, "same name in another company is allowed")
}

func TestRoleUsecase_CreateValidation(t *testing.T) {
	f := newFixture()

	req := managerRequest()
	req.Permissions = append(req.Permissions, perm("1", domain.Actions{}))
	_, err := f.uc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInputValidation)
	assert.Equal(t, domain.KindInputValidation, domain.KindOf(err))
	assert.Empty(t, f.roles.roles, "nothing is stored for an invalid request")
}

func TestRoleUsecase_CreateUnknownModule(t *testing.T) {
	f := newFixture()

	req := managerRequest()
	req.Permissions = append(req.Permissions, perm("42", domain.FullAccess()))
	_, err := f.uc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
}

func TestRoleUsecase_CreateUnknownModuleKeepsOtherRows(t *testing.T) {
	f := newFixture()
	f.permissions.createLatency = 5 * time.Millisecond
	ctx := context.Background()

	req := managerRequest()
	req.Permissions = append(req.Permissions, perm("99", domain.FullAccess()))
	_, err := f.uc.Create(ctx, req)
	require.ErrorIs(t, err, domain.ErrModuleNotFound)

	role, err := f.roles.FindOne(ctx, &domain.RoleFilter{Name: &req.Name}, nil)
	require.NoError(t, err)
	rows := f.permissions.forRole(role.ID)
	assert.Equal(t, map[string]domain.Actions{
		"1": {Create: true, Read: true, Update: true},
		"2": {Read: true},
	}, rows, "a failed module does not cancel the writes of the others")
}

func TestRoleUsecase_CreateAdminRole(t *testing.T) {
	f := newFixture()

	detail, err := f.uc.CreateAdminRole(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Admin", detail.Role.Name)

	rows := f.permissions.forRole(detail.Role.ID)
	require.Len(t, rows, 8)
	for moduleID, actions := range rows {
		switch moduleID {
		case "3", "6":
			assert.Equal(t, domain.Actions{}, actions, "module %s", moduleID)
		default:
			assert.Equal(t, domain.FullAccess(), actions, "module %s", moduleID)
		}
	}
}

func TestRoleUsecase_UpdateOverwritesExisting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)
	createsAfterCreate := f.permissions.creates

	updated, err := f.uc.Update(ctx, detail.Role.ID, &domain.UpdateRoleRequest{
		Name:        "Manager",
		Permissions: []domain.PermissionInput{perm("1", domain.Actions{Read: true})},
	})
	require.NoError(t, err)

	assert.Equal(t, createsAfterCreate, f.permissions.creates, "no row is created for an existing module")
	assert.Equal(t, 1, f.permissions.updates)
	assert.Len(t, updated.Permissions, 2)

	rows := f.permissions.forRole(detail.Role.ID)
	assert.Equal(t, domain.Actions{Read: true}, rows["1"])
	assert.Equal(t, domain.Actions{Read: true}, rows["2"], "unlisted permissions are untouched")
}

func TestRoleUsecase_UpdateIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)

	req := &domain.UpdateRoleRequest{
		Name: "Team Lead",
		Permissions: []domain.PermissionInput{
			perm("2", domain.FullAccess()),
			perm("5", domain.Actions{Read: true}),
		},
	}
	_, err = f.uc.Update(ctx, detail.Role.ID, req)
	require.NoError(t, err)
	first := f.permissions.forRole(detail.Role.ID)

	_, err = f.uc.Update(ctx, detail.Role.ID, req)
	require.NoError(t, err)

	assert.Equal(t, first, f.permissions.forRole(detail.Role.ID))
	assert.Len(t, first, 3, "one row per module")

	role, err := f.roles.FindByID(ctx, detail.Role.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Team Lead", role.Name)
}

func TestRoleUsecase_UpdateErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	manager, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)
	viewer := managerRequest()
	viewer.Name = "Viewer"
	_, err = f.uc.Create(ctx, viewer)
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, "missing", &domain.UpdateRoleRequest{
		Name: "X", Permissions: []domain.PermissionInput{perm("1", domain.Actions{})},
	})
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)

	_, err = f.uc.Update(ctx, manager.Role.ID, &domain.UpdateRoleRequest{
		Name: "Viewer", Permissions: []domain.PermissionInput{perm("1", domain.Actions{})},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateRole)

	_, err = f.uc.Update(ctx, manager.Role.ID, &domain.UpdateRoleRequest{
		Name: "Manager", Permissions: []domain.PermissionInput{perm("99", domain.Actions{})},
	})
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
}

func TestRoleUsecase_UpdateDetectsVanishedRow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)
	f.permissions.lostUpdates = true

	_, err = f.uc.Update(ctx, detail.Role.ID, &domain.UpdateRoleRequest{
		Name:        "Manager",
		Permissions: []domain.PermissionInput{perm("1", domain.Actions{Read: true})},
	})
	assert.ErrorIs(t, err, domain.ErrUpdatePermissionFailed)
}

func TestRoleUsecase_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(ctx, detail.Role.ID))
	assert.Equal(t, 1, f.tx.calls)
	assert.Empty(t, f.permissions.forRole(detail.Role.ID))

	_, err = f.roles.FindByID(ctx, detail.Role.ID, nil)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	assert.ErrorIs(t, f.uc.Delete(ctx, detail.Role.ID), domain.ErrRoleNotFound)
}

func TestRoleUsecase_DeleteBlockedByBoundIdentity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)
	f.identities.boundRoles[detail.Role.ID] = true

	err = f.uc.Delete(ctx, detail.Role.ID)
	assert.ErrorIs(t, err, domain.ErrBoundIdentityExists)
	assert.Zero(t, f.tx.calls)
	assert.Len(t, f.permissions.forRole(detail.Role.ID), 2)
}

func TestRoleUsecase_DeleteAbortsOnPermissionMismatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)
	f.permissions.deleteShortfall = 1

	err = f.uc.Delete(ctx, detail.Role.ID)
	assert.ErrorIs(t, err, domain.ErrDeletePermissionsFailed)

	role, err := f.roles.FindByID(ctx, detail.Role.ID, nil)
	require.NoError(t, err, "role stays when its permissions could not all be deleted")
	assert.Equal(t, "Manager", role.Name)
}

func TestRoleUsecase_ListAndPermissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	detail, err := f.uc.Create(ctx, managerRequest())
	require.NoError(t, err)

	roles, err := f.uc.ListByCompany(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, detail.Role.ID, roles[0].ID)

	_, err = f.uc.ListByCompany(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInputValidation)

	// a module dropped from the catalog is skipped
	f.catalog.modules = f.catalog.modules[:1]
	perms, err := f.uc.GetPermissions(ctx, detail.Role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "1", perms[0].ModuleID)
	assert.Equal(t, "Role Management", perms[0].ModuleName)
	assert.Equal(t, domain.Actions{Create: true, Read: true, Update: true}, perms[0].Actions)
}
