package handlers

import (
	"github.com/gin-gonic/gin"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/domain/auth"
	"invoicehub/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication and user administration endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewLoginResponse(token, user))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	caller := h.Caller(c)
	if caller.UserID == 0 {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}

	user, err := h.service.GetUserByID(c.Request.Context(), caller.UserID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// Roles handles GET /auth/roles
func (h *AuthHandler) Roles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, roles)
}

// CreateShopAdmin handles POST /users/shop-admin
func (h *AuthHandler) CreateShopAdmin(c *gin.Context) {
	var req dto.CreateShopAdminRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.CreateShopAdmin(c.Request.Context(), h.Caller(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromUser(user))
}
