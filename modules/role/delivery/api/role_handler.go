package api

import (
	"net/http"

	"identity-service/common"
	"identity-service/domain"
	"identity-service/middleware"
	"identity-service/validator"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	usecase      domain.RoleUsecase
	middlewares  middleware.Middlewares
	rules        *middleware.RouteRules
	roleModuleID string
}

// NewRoleHandler guards the role routes with the CRUD flags of roleModuleID.
func NewRoleHandler(usecase domain.RoleUsecase, middlewares middleware.Middlewares, rules *middleware.RouteRules, roleModuleID string) *RoleHandler {
	return &RoleHandler{
		usecase:      usecase,
		middlewares:  middlewares,
		rules:        rules,
		roleModuleID: roleModuleID,
	}
}

func (h *RoleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	role := rg.Group("/roles")
	role.Use(h.middlewares.APIRateLimits())

	role.POST("", h.Create)
	role.GET("", h.ListByCompany)
	role.GET("/:id/permissions", h.GetPermissions)
	role.PUT("/:id", h.Update)
	role.DELETE("/:id", h.Delete)

	base := role.BasePath()
	h.rules.Register(
		middleware.RouteRule{Method: http.MethodPost, Path: base, ModuleID: h.roleModuleID, Action: domain.ActionCreate},
		middleware.RouteRule{Method: http.MethodGet, Path: base, AuthenticateOnly: true},
		middleware.RouteRule{Method: http.MethodGet, Path: base + "/:id/permissions", ModuleID: h.roleModuleID, Action: domain.ActionRead},
		middleware.RouteRule{Method: http.MethodPut, Path: base + "/:id", ModuleID: h.roleModuleID, Action: domain.ActionUpdate},
		middleware.RouteRule{Method: http.MethodDelete, Path: base + "/:id", ModuleID: h.roleModuleID, Action: domain.ActionDelete},
	)
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req domain.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}
	detail, err := h.usecase.Create(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, detail, "Role created successfully")
}

func (h *RoleHandler) ListByCompany(c *gin.Context) {
	var req domain.ListRolesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}
	roles, err := h.usecase.ListByCompany(c.Request.Context(), req.CompanyID)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, roles, "Roles found")
}

func (h *RoleHandler) GetPermissions(c *gin.Context) {
	permissions, err := h.usecase.GetPermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, permissions, "Role permissions found")
}

func (h *RoleHandler) Update(c *gin.Context) {
	var req domain.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}
	detail, err := h.usecase.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, detail, "Role updated successfully")
}

func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}
