package api

import (
	"identity-service/common"
	"identity-service/domain"
	"identity-service/middleware"
	"identity-service/validator"

	"github.com/gin-gonic/gin"
)

type IdentityHandler struct {
	usecase     domain.IdentityUsecase
	middlewares middleware.Middlewares
}

func NewIdentityHandler(usecase domain.IdentityUsecase, middlewares middleware.Middlewares) *IdentityHandler {
	return &IdentityHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

// RegisterRoutes mounts the user sync endpoints. They are called by the
// upstream user service and carry no end-user token.
func (h *IdentityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(h.middlewares.APIRateLimits())

	users.POST("/sync", h.SyncUser)
	users.POST("/sync-admin", h.SyncAdminUser)
	users.GET("", h.List)
}

func (h *IdentityHandler) SyncUser(c *gin.Context) {
	var req domain.SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}
	identity, err := h.usecase.SyncUser(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, identity, "User synced successfully")
}

func (h *IdentityHandler) SyncAdminUser(c *gin.Context) {
	var req domain.SyncAdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}
	identity, err := h.usecase.SyncAdminUser(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, identity, "Admin user synced successfully")
}

func (h *IdentityHandler) List(c *gin.Context) {
	var req domain.ListIdentitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}
	identities, pagination, err := h.usecase.List(c.Request.Context(), req.Filter(), req.PageOption())
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, common.PageResponse[*domain.Identity]{
		Items:      identities,
		Pagination: pagination,
	}, "Users found")
}
