package usecase

import (
	"context"
	"errors"
	"strings"

	"identity-service/common"
	"identity-service/database"
	"identity-service/domain"
	"identity-service/pkg/log"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.Identity, error)
	FindOne(ctx context.Context, filter *domain.IdentityFilter, option *domain.FindOneOption) (*domain.Identity, error)
	FindPage(ctx context.Context, filter *domain.IdentityFilter, option *domain.FindPageOption) ([]*domain.Identity, *domain.Pagination, error)
}

type RoleRepository interface {
	FindByID(ctx context.Context, roleID string, option *domain.FindOneOption) (*domain.Role, error)
	FindOne(ctx context.Context, filter *domain.RoleFilter, option *domain.FindOneOption) (*domain.Role, error)
}

// AdminRoleCreator is satisfied by domain.RoleUsecase.
type AdminRoleCreator interface {
	CreateAdminRole(ctx context.Context, companyID string) (*domain.RoleDetail, error)
}

type RequestValidator interface {
	Validate(obj any) error
}

type Dependencies struct {
	IdentityRepo  IdentityRepository
	RoleRepo      RoleRepository
	Roles         AdminRoleCreator
	Hasher        common.PasswordHasher
	Validator     RequestValidator
	AdminRoleName string
	Logger        log.Logger
}

type identityUsecase struct {
	identityRepo  IdentityRepository
	roleRepo      RoleRepository
	roles         AdminRoleCreator
	hasher        common.PasswordHasher
	validator     RequestValidator
	adminRoleName string
	logger        log.Logger
}

func NewIdentityUsecase(deps Dependencies) domain.IdentityUsecase {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &identityUsecase{
		identityRepo:  deps.IdentityRepo,
		roleRepo:      deps.RoleRepo,
		roles:         deps.Roles,
		hasher:        deps.Hasher,
		validator:     deps.Validator,
		adminRoleName: deps.AdminRoleName,
		logger:        logger,
	}
}

// SyncUser binds a new upstream user to an existing role of its company.
// A user id or username that is already synced is rejected; sync never
// rebinds an identity or replaces its password.
func (u *identityUsecase) SyncUser(ctx context.Context, req *domain.SyncUserRequest) (*domain.Identity, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if err := u.ensureNotSynced(ctx, req.UserID, username); err != nil {
		return nil, err
	}

	role, err := u.roleRepo.FindByID(ctx, req.RoleID, nil)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrRoleNotFound.WithReasonf("role %s does not exist", req.RoleID)
	}
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	if role.CompanyID != nil && !role.BelongsTo(req.CompanyID) {
		return nil, domain.ErrRoleNotFound.WithReasonf("role %s does not belong to company %s", role.ID, req.CompanyID)
	}

	identity, err := u.bind(ctx, &domain.Identity{
		SQLModel:     domain.SQLModel{ID: req.UserID},
		Username:     username,
		CompanyID:    req.CompanyID,
		RoleID:       role.ID,
		ProfilePhoto: req.ProfilePhoto,
	}, req.Password)
	if err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "user synced",
		log.UserID(identity.ID),
		log.RoleID(identity.RoleID),
		log.CompanyID(identity.CompanyID),
	)
	return identity, nil
}

// SyncAdminUser binds a new user to its company's admin role, creating the
// role on first use. Existing users are rejected as in SyncUser.
func (u *identityUsecase) SyncAdminUser(ctx context.Context, req *domain.SyncAdminUserRequest) (*domain.Identity, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if err := u.ensureNotSynced(ctx, req.UserID, username); err != nil {
		return nil, err
	}

	roleID, err := u.adminRoleID(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	identity, err := u.bind(ctx, &domain.Identity{
		SQLModel:     domain.SQLModel{ID: req.UserID},
		Username:     username,
		CompanyID:    req.CompanyID,
		RoleID:       roleID,
		ProfilePhoto: req.ProfilePhoto,
	}, req.Password)
	if err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "admin user synced",
		log.UserID(identity.ID),
		log.RoleID(roleID),
		log.CompanyID(req.CompanyID),
	)
	return identity, nil
}

func (u *identityUsecase) List(ctx context.Context, filter *domain.IdentityFilter, option *domain.FindPageOption) ([]*domain.Identity, *domain.Pagination, error) {
	identities, pagination, err := u.identityRepo.FindPage(ctx, filter, option)
	if err != nil {
		return nil, nil, domain.ErrDatabase.WithWrap(err)
	}
	return identities, pagination, nil
}

func (u *identityUsecase) adminRoleID(ctx context.Context, companyID string) (string, error) {
	existing, err := u.roleRepo.FindOne(ctx, &domain.RoleFilter{
		Name:      &u.adminRoleName,
		CompanyID: &companyID,
	}, nil)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return "", domain.ErrDatabase.WithWrap(err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	detail, err := u.roles.CreateAdminRole(ctx, companyID)
	if err != nil {
		return "", err
	}
	return detail.Role.ID, nil
}

func (u *identityUsecase) ensureNotSynced(ctx context.Context, userID, username string) error {
	existing, err := common.NotFoundAsNil(u.identityRepo.FindByID(ctx, userID, nil))
	if err != nil {
		return domain.ErrDatabase.WithWrap(err)
	}
	if existing != nil {
		return domain.ErrIdentityAlreadyExists.WithReasonf("user %s is already synced", userID)
	}

	existing, err = common.NotFoundAsNil(u.identityRepo.FindOne(ctx, &domain.IdentityFilter{Username: &username}, nil))
	if err != nil {
		return domain.ErrDatabase.WithWrap(err)
	}
	if existing != nil {
		return domain.ErrUsernameAlreadyExists.WithReasonf("username %q is taken", username)
	}
	return nil
}

// bind stores a new identity. The unique indexes on id and username catch a
// concurrent sync of the same user.
func (u *identityUsecase) bind(ctx context.Context, identity *domain.Identity, password string) (*domain.Identity, error) {
	if password != "" {
		hash, err := u.hasher.Hash(password)
		if err != nil {
			return nil, domain.ErrPasswordHashFailed.WithWrap(err)
		}
		identity.PasswordHash = hash
	}

	err := u.identityRepo.Create(ctx, identity)
	if database.IsDuplicateKey(err) {
		return nil, domain.ErrIdentityAlreadyExists.WithWrap(err)
	}
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	return identity, nil
}
