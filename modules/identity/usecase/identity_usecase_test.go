package usecase

import (
	"context"
	"errors"
	"testing"

	"identity-service/common"
	"identity-service/domain"
	"identity-service/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	managerRoleID = "0b6f1f5e-8a43-4d0e-9a59-3f1f2b7c9d01"
	foreignRoleID = "0b6f1f5e-8a43-4d0e-9a59-3f1f2b7c9d02"
	globalRoleID  = "0b6f1f5e-8a43-4d0e-9a59-3f1f2b7c9d03"
	adminRoleID   = "0b6f1f5e-8a43-4d0e-9a59-3f1f2b7c9d04"
)

type fakeIdentityRepo struct {
	identities map[string]*domain.Identity
}

func (r *fakeIdentityRepo) Create(_ context.Context, identity *domain.Identity) error {
	cp := *identity
	r.identities[identity.ID] = &cp
	return nil
}

func (r *fakeIdentityRepo) FindByID(_ context.Context, userID string, _ *domain.FindOneOption) (*domain.Identity, error) {
	identity, ok := r.identities[userID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	cp := *identity
	return &cp, nil
}

func (r *fakeIdentityRepo) FindOne(_ context.Context, filter *domain.IdentityFilter, _ *domain.FindOneOption) (*domain.Identity, error) {
	for _, identity := range r.identities {
		if filter.Username != nil && identity.Username != *filter.Username {
			continue
		}
		cp := *identity
		return &cp, nil
	}
	return nil, domain.ErrRecordNotFound
}

func (r *fakeIdentityRepo) FindPage(_ context.Context, filter *domain.IdentityFilter, option *domain.FindPageOption) ([]*domain.Identity, *domain.Pagination, error) {
	var out []*domain.Identity
	for _, identity := range r.identities {
		if filter != nil && filter.CompanyID != nil && identity.CompanyID != *filter.CompanyID {
			continue
		}
		out = append(out, identity)
	}
	return out, domain.NewPagination(1, 10, int64(len(out))), nil
}

type fakeRoleRepo struct {
	roles map[string]*domain.Role
}

func (r *fakeRoleRepo) FindByID(_ context.Context, roleID string, _ *domain.FindOneOption) (*domain.Role, error) {
	role, ok := r.roles[roleID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return role, nil
}

func (r *fakeRoleRepo) FindOne(_ context.Context, filter *domain.RoleFilter, _ *domain.FindOneOption) (*domain.Role, error) {
	for _, role := range r.roles {
		if filter.Name != nil && role.Name != *filter.Name {
			continue
		}
		if filter.CompanyID != nil && !role.BelongsTo(*filter.CompanyID) {
			continue
		}
		return role, nil
	}
	return nil, domain.ErrRecordNotFound
}

type fakeAdminRoles struct {
	roles   *fakeRoleRepo
	created []string
}

func (f *fakeAdminRoles) CreateAdminRole(_ context.Context, companyID string) (*domain.RoleDetail, error) {
	f.created = append(f.created, companyID)
	role := &domain.Role{SQLModel: domain.SQLModel{ID: adminRoleID}, Name: "Admin", CompanyID: &companyID}
	f.roles.roles[role.ID] = role
	return &domain.RoleDetail{Role: role}, nil
}

type fixture struct {
	uc         domain.IdentityUsecase
	identities *fakeIdentityRepo
	roles      *fakeRoleRepo
	admin      *fakeAdminRoles
}

func strPtr(s string) *string { return &s }

func newFixture() *fixture {
	f := &fixture{
		identities: &fakeIdentityRepo{identities: map[string]*domain.Identity{}},
		roles: &fakeRoleRepo{roles: map[string]*domain.Role{
			managerRoleID: {SQLModel: domain.SQLModel{ID: managerRoleID}, Name: "Manager", CompanyID: strPtr("c-1")},
			foreignRoleID: {SQLModel: domain.SQLModel{ID: foreignRoleID}, Name: "Manager", CompanyID: strPtr("c-2")},
			globalRoleID:  {SQLModel: domain.SQLModel{ID: globalRoleID}, Name: "Viewer"},
		}},
	}
	f.admin = &fakeAdminRoles{roles: f.roles}
	f.uc = NewIdentityUsecase(Dependencies{
		IdentityRepo:  f.identities,
		RoleRepo:      f.roles,
		Roles:         f.admin,
		Hasher:        common.NewBcryptHasher(bcrypt.MinCost),
		Validator:     validator.New(),
		AdminRoleName: "Admin",
	})
	return f
}

func TestIdentityUsecase_SyncUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	identity, err := f.uc.SyncUser(ctx, &domain.SyncUserRequest{
		UserID:    "u-1",
		Username:  " alice ",
		RoleID:    managerRoleID,
		CompanyID: "c-1",
		Password:  "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.True(t, identity.HasPassword())

	stored := f.identities.identities["u-1"]
	require.NotNil(t, stored)
	ok, err := common.NewBcryptHasher(bcrypt.MinCost).Compare(stored.PasswordHash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	// a second sync of the same user never rebinds it
	_, err = f.uc.SyncUser(ctx, &domain.SyncUserRequest{
		UserID:    "u-1",
		Username:  "alice",
		RoleID:    globalRoleID,
		CompanyID: "c-1",
		Password:  "another password",
	})
	assert.ErrorIs(t, err, domain.ErrIdentityAlreadyExists)
	assert.Equal(t, managerRoleID, f.identities.identities["u-1"].RoleID)
	assert.Equal(t, stored.PasswordHash, f.identities.identities["u-1"].PasswordHash)
}

func TestIdentityUsecase_SyncAdminUserCannotTakeOverExistingUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hasher := common.NewBcryptHasher(bcrypt.MinCost)

	_, err := f.uc.SyncUser(ctx, &domain.SyncUserRequest{
		UserID: "u-1", Username: "alice", RoleID: managerRoleID, CompanyID: "c-1", Password: "original-pass",
	})
	require.NoError(t, err)

	_, err = f.uc.SyncAdminUser(ctx, &domain.SyncAdminUserRequest{
		UserID: "u-1", Username: "alice", CompanyID: "c-1", Password: "attacker-pass",
	})
	assert.ErrorIs(t, err, domain.ErrIdentityAlreadyExists)

	stored := f.identities.identities["u-1"]
	assert.Equal(t, managerRoleID, stored.RoleID)
	ok, err := hasher.Compare(stored.PasswordHash, "original-pass")
	require.NoError(t, err)
	assert.True(t, ok, "the stored password is unchanged")
	assert.Empty(t, f.admin.created, "no admin role is created for a rejected sync")
}

func TestIdentityUsecase_SyncUserErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.uc.SyncUser(ctx, &domain.SyncUserRequest{UserID: "u-1", Username: "alice", RoleID: managerRoleID, CompanyID: "c-1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *domain.SyncUserRequest
		wantErr error
	}{
		{
			name:    "username held by another user",
			req:     &domain.SyncUserRequest{UserID: "u-2", Username: "alice", RoleID: managerRoleID, CompanyID: "c-1"},
			wantErr: domain.ErrUsernameAlreadyExists,
		},
		{
			name:    "unknown role",
			req:     &domain.SyncUserRequest{UserID: "u-2", Username: "bob", RoleID: "0b6f1f5e-8a43-4d0e-9a59-3f1f2b7c9dff", CompanyID: "c-1"},
			wantErr: domain.ErrRoleNotFound,
		},
		{
			name:    "role of another company",
			req:     &domain.SyncUserRequest{UserID: "u-2", Username: "bob", RoleID: foreignRoleID, CompanyID: "c-1"},
			wantErr: domain.ErrRoleNotFound,
		},
		{
			name:    "role id is not a uuid",
			req:     &domain.SyncUserRequest{UserID: "u-2", Username: "bob", RoleID: "manager", CompanyID: "c-1"},
			wantErr: domain.ErrInputValidation,
		},
		{
			name:    "short password",
			req:     &domain.SyncUserRequest{UserID: "u-2", Username: "bob", RoleID: managerRoleID, CompanyID: "c-1", Password: "short"},
			wantErr: domain.ErrInputValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.SyncUser(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Len(t, f.identities.identities, 1)
}

func TestIdentityUsecase_SyncAdminUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.uc.SyncAdminUser(ctx, &domain.SyncAdminUserRequest{UserID: "u-1", Username: "root", CompanyID: "c-9"})
	require.NoError(t, err)
	assert.Equal(t, adminRoleID, first.RoleID)

	second, err := f.uc.SyncAdminUser(ctx, &domain.SyncAdminUserRequest{UserID: "u-2", Username: "root2", CompanyID: "c-9"})
	require.NoError(t, err)
	assert.Equal(t, adminRoleID, second.RoleID)

	assert.Equal(t, []string{"c-9"}, f.admin.created, "the admin role is created once per company")
}

func TestIdentityUsecase_SyncAdminUserDuplicateUsername(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.uc.SyncUser(ctx, &domain.SyncUserRequest{UserID: "u-1", Username: "alice", RoleID: managerRoleID, CompanyID: "c-1"})
	require.NoError(t, err)

	_, err = f.uc.SyncAdminUser(ctx, &domain.SyncAdminUserRequest{UserID: "u-2", Username: "alice", CompanyID: "c-1"})
	assert.True(t, errors.Is(err, domain.ErrUsernameAlreadyExists))
	assert.Empty(t, f.admin.created)
}

func TestIdentityUsecase_List(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.uc.SyncUser(ctx, &domain.SyncUserRequest{UserID: "u-1", Username: "alice", RoleID: managerRoleID, CompanyID: "c-1"})
	require.NoError(t, err)
	_, err = f.uc.SyncUser(ctx, &domain.SyncUserRequest{UserID: "u-2", Username: "bob", RoleID: foreignRoleID, CompanyID: "c-2"})
	require.NoError(t, err)

	req := &domain.ListIdentitiesRequest{CompanyID: "c-2"}
	identities, page, err := f.uc.List(ctx, req.Filter(), req.PageOption())
	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, "bob", identities[0].Username)
	assert.EqualValues(t, 1, page.TotalItems)
}
