package api

import (
	"net/http"

	"identity-service/common"
	"identity-service/domain"
	"identity-service/middleware"

	"github.com/gin-gonic/gin"
)

type ModuleHandler struct {
	usecase     domain.ModuleUsecase
	middlewares middleware.Middlewares
	rules       *middleware.RouteRules
}

func NewModuleHandler(usecase domain.ModuleUsecase, middlewares middleware.Middlewares, rules *middleware.RouteRules) *ModuleHandler {
	return &ModuleHandler{
		usecase:     usecase,
		middlewares: middlewares,
		rules:       rules,
	}
}

func (h *ModuleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	modules := rg.Group("/modules")
	modules.Use(h.middlewares.APIRateLimits())

	modules.GET("", h.List)

	h.rules.Register(middleware.RouteRule{Method: http.MethodGet, Path: modules.BasePath(), AuthenticateOnly: true})
}

func (h *ModuleHandler) List(c *gin.Context) {
	modules, err := h.usecase.List(c.Request.Context())
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, modules, "Modules found")
}
