package dto

import (
	"time"

	"github.com/spec-kit/idp-service/internal/auth"
	"github.com/spec-kit/idp-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest payload for sign-in.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest asks whether token is valid for subject.
type VerifyRequest struct {
	Token   string `json:"token"`
	Subject string `json:"subject"`
}

// ChangePasswordRequest payload for password rotation.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for token-issuing endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// ClaimsResponse mirrors the verified token claims.
type ClaimsResponse struct {
	Issuer    string    `json:"iss"`
	Audience  string    `json:"aud"`
	Subject   string    `json:"sub"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// NewAuthResponse converts an issued token.
func NewAuthResponse(issued *domain.IssuedToken) AuthResponse {
	return AuthResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt}
}

// NewUserResponse converts a user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email.String(),
		Status: string(user.Status),
	}
}

// NewClaimsResponse converts verified claims.
func NewClaimsResponse(claims auth.Claims) ClaimsResponse {
	return ClaimsResponse{
		Issuer:    claims.Issuer,
		Audience:  claims.Audience,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedTime(),
		ExpiresAt: claims.ExpiryTime(),
	}
}
