package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"identity-service/common"
	"identity-service/domain"
	"identity-service/middleware"
	"identity-service/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.RegisterValidatorWithGin()
}

type jwtConfig struct{}

func (jwtConfig) AccessTokenExpiresIn() time.Duration { return time.Hour }
func (jwtConfig) AccessTokenSecret() string           { return "role-handler-test-secret" }
func (jwtConfig) TokenIssuer() string                 { return "identity-service" }

type fakeRoleUsecase struct {
	created *domain.CreateRoleRequest
	deleted string
}

func (f *fakeRoleUsecase) Create(_ context.Context, req *domain.CreateRoleRequest) (*domain.RoleDetail, error) {
	f.created = req
	companyID := req.CompanyID
	return &domain.RoleDetail{Role: &domain.Role{SQLModel: domain.SQLModel{ID: "r-new"}, Name: req.Name, CompanyID: &companyID}}, nil
}

func (f *fakeRoleUsecase) Update(_ context.Context, roleID string, req *domain.UpdateRoleRequest) (*domain.RoleDetail, error) {
	return &domain.RoleDetail{Role: &domain.Role{SQLModel: domain.SQLModel{ID: roleID}, Name: req.Name}}, nil
}

func (f *fakeRoleUsecase) Delete(_ context.Context, roleID string) error {
	if roleID == "bound" {
		return domain.ErrBoundIdentityExists
	}
	f.deleted = roleID
	return nil
}

func (f *fakeRoleUsecase) CreateAdminRole(context.Context, string) (*domain.RoleDetail, error) {
	return nil, nil
}

func (f *fakeRoleUsecase) ListByCompany(_ context.Context, companyID string) ([]*domain.Role, error) {
	return []*domain.Role{{SQLModel: domain.SQLModel{ID: "r-1"}, Name: "Manager", CompanyID: &companyID}}, nil
}

func (f *fakeRoleUsecase) GetPermissions(_ context.Context, roleID string) ([]*domain.RolePermission, error) {
	return []*domain.RolePermission{{ModuleID: "1", ModuleName: "Role Management"}}, nil
}

func newRouter(t *testing.T, uc domain.RoleUsecase) (*gin.Engine, *common.JWTProvider) {
	t.Helper()
	provider := common.NewJWTProvider(jwtConfig{})
	m := middleware.NewMiddlewares(middleware.Dependencies{Verifier: provider})
	rules := middleware.NewRouteRules()

	r := gin.New()
	api := r.Group("/api/v1/auth")
	api.Use(m.RequestID(), m.Authorizer(rules))
	NewRoleHandler(uc, m, rules, "1").RegisterRoutes(api)
	return r, provider
}

func tokenFor(t *testing.T, p *common.JWTProvider, actions domain.Actions) string {
	t.Helper()
	token, err := p.Issue(
		&domain.Identity{SQLModel: domain.SQLModel{ID: "u-1"}, RoleID: "r-1"},
		[]*domain.Permission{{ModuleID: "1", Actions: actions}},
		"Manager",
	)
	require.NoError(t, err)
	return token
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const createBody = `{"company_id":"c-1","name":"Manager","permissions":[{"module_id":"2","actions":{"create":false,"read":true,"update":false,"delete":false}}]}`

func TestRoleHandler_RegistersRouteRules(t *testing.T) {
	rules := middleware.NewRouteRules()
	m := middleware.NewMiddlewares(middleware.Dependencies{})
	r := gin.New()
	NewRoleHandler(&fakeRoleUsecase{}, m, rules, "1").RegisterRoutes(r.Group("/api/v1/auth"))

	want := map[string]domain.Action{
		"POST /api/v1/auth/roles":                domain.ActionCreate,
		"GET /api/v1/auth/roles/:id/permissions": domain.ActionRead,
		"PUT /api/v1/auth/roles/:id":             domain.ActionUpdate,
		"DELETE /api/v1/auth/roles/:id":          domain.ActionDelete,
	}
	got := map[string]domain.Action{}
	for _, rule := range rules.All() {
		if rule.AuthenticateOnly {
			continue
		}
		assert.Equal(t, "1", rule.ModuleID)
		got[rule.Method+" "+rule.Path] = rule.Action
	}
	assert.Equal(t, want, got)

	list, ok := rules.Lookup(http.MethodGet, "/api/v1/auth/roles")
	require.True(t, ok)
	assert.True(t, list.AuthenticateOnly)
}

func TestRoleHandler_Create(t *testing.T) {
	uc := &fakeRoleUsecase{}
	r, provider := newRouter(t, uc)

	w := serve(r, http.MethodPost, "/api/v1/auth/roles", tokenFor(t, provider, domain.Actions{Create: true}), createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":"r-new"`)
	require.NotNil(t, uc.created)
	assert.Equal(t, "2", uc.created.Permissions[0].ModuleID)
}

func TestRoleHandler_CreateWithoutGrant(t *testing.T) {
	uc := &fakeRoleUsecase{}
	r, provider := newRouter(t, uc)

	w := serve(r, http.MethodPost, "/api/v1/auth/roles", tokenFor(t, provider, domain.Actions{Read: true}), createBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, uc.created)

	w = serve(r, http.MethodPost, "/api/v1/auth/roles", "", createBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleHandler_CreateInvalidBody(t *testing.T) {
	r, provider := newRouter(t, &fakeRoleUsecase{})

	body := `{"company_id":"c-1","name":"Manager","permissions":[{"module_id":"x","actions":{"create":true,"read":true,"update":true,"delete":true}}]}`
	w := serve(r, http.MethodPost, "/api/v1/auth/roles", tokenFor(t, provider, domain.FullAccess()), body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"permissions[0].module_id"`)
}

func TestRoleHandler_Delete(t *testing.T) {
	uc := &fakeRoleUsecase{}
	r, provider := newRouter(t, uc)
	token := tokenFor(t, provider, domain.Actions{Delete: true})

	w := serve(r, http.MethodDelete, "/api/v1/auth/roles/r-9", token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "r-9", uc.deleted)

	w = serve(r, http.MethodDelete, "/api/v1/auth/roles/bound", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"BOUND_USER_EXISTS"`)
}

func TestRoleHandler_ListNeedsOnlyAToken(t *testing.T) {
	r, provider := newRouter(t, &fakeRoleUsecase{})
	token := tokenFor(t, provider, domain.Actions{})

	w := serve(r, http.MethodGet, "/api/v1/auth/roles?company_id=c-1", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"name":"Manager"`)

	w = serve(r, http.MethodGet, "/api/v1/auth/roles", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/auth/roles?company_id=c-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
