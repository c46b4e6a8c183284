package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/idp-service/internal/api/dto"
	"github.com/spec-kit/idp-service/internal/auth"
	"github.com/spec-kit/idp-service/internal/domain"
	"github.com/spec-kit/idp-service/internal/service"
	apperrors "github.com/spec-kit/idp-service/pkg/util"
)

// AuthHandler exposes registration, sign-in and token verification.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if missing := missingFields(map[string]string{"name": req.Name, "email": req.Email, "password": req.Password}); len(missing) > 0 {
		return apperrors.NewValidationError("name, email, password required", map[string]any{"missing": missing})
	}

	user, issued, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.NewAuthResponse(issued),
		},
	})
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, issued, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.NewAuthResponse(issued),
		},
	})
}

// Verify handles POST /auth/verify. The token and subject come from the JSON
// body, or from the Authorization and X-Auth-Subject headers when the body is
// empty.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if req.Token == "" {
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		req.Token = token
	}
	if req.Subject == "" {
		req.Subject = strings.TrimSpace(c.Get(auth.SubjectHeader))
	}

	claims, err := h.auth.Verify(c.UserContext(), req.Token, req.Subject)
	if err != nil {
		return auth.HTTPError(err)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"valid":  true,
			"claims": dto.NewClaimsResponse(claims),
		},
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("missing principal")
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":   dto.NewUserResponse(principal.User),
			"claims": dto.NewClaimsResponse(principal.Claims),
		},
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("missing principal")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}

	if err := h.auth.ChangePassword(c.UserContext(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return mapAuthError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidMailAddress):
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "email"})
	case errors.Is(err, service.ErrEmailTaken):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized(err.Error())
	case errors.Is(err, service.ErrUserInactive):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		return apperrors.NewTooManyRequests(err.Error())
	case auth.CodeOf(err) != "":
		return auth.HTTPError(err)
	}
	return apperrors.MapError(err)
}

func missingFields(fields map[string]string) []string {
	var missing []string
	for _, name := range []string{"name", "email", "password"} {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
