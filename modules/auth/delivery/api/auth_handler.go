package api

import (
	"identity-service/common"
	"identity-service/domain"
	"identity-service/middleware"
	"identity-service/validator"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	usecase     domain.AuthUsecase
	middlewares middleware.Middlewares
}

func NewAuthHandler(
	usecase domain.AuthUsecase,
	middlewares middleware.Middlewares,
) *AuthHandler {
	return &AuthHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

// RegisterRoutes mounts the public credential endpoints. None of them is
// mapped in the route rules.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	limited := rg.Group("")
	limited.Use(h.middlewares.LoginRateLimits())
	{
		limited.POST("/login", h.Login)
		limited.POST("/federated-login", h.FederatedLogin)
	}

	rg.POST("/protect", h.middlewares.APIRateLimits(), h.Protect)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}

	resp, err := h.usecase.Login(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, resp, "Login successful")
}

func (h *AuthHandler) FederatedLogin(c *gin.Context) {
	var req domain.FederatedLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseError(c, validator.BindError(err))
		return
	}

	resp, err := h.usecase.FederatedLogin(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, resp, "Login successful")
}

// Protect takes the token from the Authorization header, falling back to
// the request body.
func (h *AuthHandler) Protect(c *gin.Context) {
	token, err := common.ExtractBearerToken(c)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	if token == "" {
		var req domain.ProtectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ResponseError(c, domain.ErrMissingCredential)
			return
		}
		token = req.Token
	}

	claims, err := h.usecase.Protect(c.Request.Context(), token)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, claims, "Token is valid")
}
