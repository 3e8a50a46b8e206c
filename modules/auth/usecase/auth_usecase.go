package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"identity-service/common"
	"identity-service/domain"
	"identity-service/pkg/log"
)

type IdentityRepository interface {
	FindOne(ctx context.Context, filter *domain.IdentityFilter, option *domain.FindOneOption) (*domain.Identity, error)
	Exists(ctx context.Context, filter *domain.IdentityFilter) (bool, error)
}

type RoleRepository interface {
	FindByID(ctx context.Context, roleID string, option *domain.FindOneOption) (*domain.Role, error)
}

type PermissionRepository interface {
	FindMany(ctx context.Context, filter *domain.PermissionFilter, option *domain.FindManyOption) ([]*domain.Permission, error)
}

type TokenProvider interface {
	Issue(identity *domain.Identity, permissions []*domain.Permission, roleName string) (string, error)
	Verify(tokenStr string) (*domain.AccessClaims, error)
	ExpiresIn() time.Duration
}

// FederatedAuthenticator maps an external assertion to a local username.
type FederatedAuthenticator interface {
	Authenticate(ctx context.Context, assertion string) (string, error)
}

type RequestValidator interface {
	Validate(obj any) error
}

type Dependencies struct {
	IdentityRepo   IdentityRepository
	RoleRepo       RoleRepository
	PermissionRepo PermissionRepository
	Tokens         TokenProvider
	Hasher         common.PasswordHasher
	// Federated is nil when no identity provider is configured.
	Federated FederatedAuthenticator
	Validator RequestValidator
	Logger    log.Logger
}

type authUsecase struct {
	identityRepo   IdentityRepository
	roleRepo       RoleRepository
	permissionRepo PermissionRepository
	tokens         TokenProvider
	hasher         common.PasswordHasher
	federated      FederatedAuthenticator
	validator      RequestValidator
	logger         log.Logger
}

func NewAuthUsecase(deps Dependencies) domain.AuthUsecase {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &authUsecase{
		identityRepo:   deps.IdentityRepo,
		roleRepo:       deps.RoleRepo,
		permissionRepo: deps.PermissionRepo,
		tokens:         deps.Tokens,
		hasher:         deps.Hasher,
		federated:      deps.Federated,
		validator:      deps.Validator,
		logger:         logger,
	}
}

// Login checks the password and issues a token carrying the role's current
// permissions. Unknown users and wrong passwords are indistinguishable.
func (a *authUsecase) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := a.validator.Validate(req); err != nil {
		return nil, err
	}

	identity, err := a.findByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if identity == nil || !identity.HasPassword() {
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := a.hasher.Compare(identity.PasswordHash, req.Password)
	if err != nil {
		return nil, domain.ErrInvalidCredentials.WithWrap(err)
	}
	if !ok {
		a.logger.WarnContext(ctx, "login rejected", log.UserID(identity.ID))
		return nil, domain.ErrInvalidCredentials
	}

	return a.issue(ctx, identity)
}

func (a *authUsecase) FederatedLogin(ctx context.Context, req *domain.FederatedLoginRequest) (*domain.LoginResponse, error) {
	if a.federated == nil {
		return nil, domain.ErrFederatedLoginDisabled
	}
	if err := a.validator.Validate(req); err != nil {
		return nil, err
	}

	username, err := a.federated.Authenticate(ctx, req.IDToken)
	if err != nil {
		return nil, domain.ErrFederatedLoginFailed.WithWrap(err)
	}

	identity, err := a.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, domain.ErrFederatedLoginFailed.WithReasonf("user %q is not synced", username)
	}
	return a.issue(ctx, identity)
}

// Protect verifies the token and checks that its user is still bound to the
// role it names.
func (a *authUsecase) Protect(ctx context.Context, token string) (*domain.AccessClaims, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	bound, err := a.identityRepo.Exists(ctx, &domain.IdentityFilter{
		ID:     &claims.UserID,
		RoleID: &claims.RoleID,
	})
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	if !bound {
		return nil, domain.ErrIdentityMismatch
	}
	return claims, nil
}

func (a *authUsecase) findByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	identity, err := a.identityRepo.FindOne(ctx, &domain.IdentityFilter{Username: &username}, nil)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}
	return identity, nil
}

func (a *authUsecase) issue(ctx context.Context, identity *domain.Identity) (*domain.LoginResponse, error) {
	role, err := a.roleRepo.FindByID(ctx, identity.RoleID, nil)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrRoleNotFound.WithReasonf("role %s of user %s no longer exists", identity.RoleID, identity.ID)
	}
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}

	permissions, err := a.permissionRepo.FindMany(ctx, &domain.PermissionFilter{RoleID: &role.ID}, nil)
	if err != nil {
		return nil, domain.ErrDatabase.WithWrap(err)
	}

	token, err := a.tokens.Issue(identity, permissions, role.Name)
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "token issued",
		log.UserID(identity.ID),
		log.RoleID(role.ID),
		log.Int("permissions", len(permissions)),
	)

	return &domain.LoginResponse{
		ID:           identity.ID,
		Username:     identity.Username,
		CompanyID:    identity.CompanyID,
		ProfilePhoto: identity.ProfilePhoto,
		Role:         role.Name,
		AccessToken:  token,
		ExpiresIn:    int64(a.tokens.ExpiresIn().Seconds()),
		Permissions:  domain.NewPermissionClaims(permissions),
	}, nil
}
