package dto

import (
	"time"

	"invoicehub/internal/domain/auth"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the user it belongs to.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	IsActive       bool       `json:"isActive"`
	OrganizationID *int64     `json:"organizationId,omitempty"`
	Roles          []string   `json:"roles"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// FromUser converts a user.
func FromUser(u *auth.User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		IsActive:       u.IsActive,
		OrganizationID: u.OrganizationID,
		Roles:          roles,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

// NewLoginResponse combines token and user.
func NewLoginResponse(token *auth.Token, user *auth.User) LoginResponse {
	return LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        FromUser(user),
	}
}

// CreateShopAdminRequest is the body of POST /users/shop-admin.
type CreateShopAdminRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	ShopID   int64  `json:"shopId" binding:"required,min=1"`
}

// ToInput converts the request.
func (r CreateShopAdminRequest) ToInput() auth.CreateShopAdminInput {
	return auth.CreateShopAdminInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		ShopID:   r.ShopID,
	}
}
