package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/idp-service/internal/domain"
	"github.com/spec-kit/idp-service/internal/repository"
	apperrors "github.com/spec-kit/idp-service/pkg/util"
)

const (
	principalKey = "auth_principal"

	// SubjectHeader carries the identity the caller claims to own.
	SubjectHeader = "X-Auth-Subject"
)

// Principal represents the authenticated caller.
type Principal struct {
	Claims Claims
	User   *domain.User
}

// Verifier checks a token against a caller-supplied subject.
type Verifier interface {
	Verify(ctx context.Context, token, subject string) (Claims, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	verifier Verifier
	users    repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier Verifier, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	subject := strings.TrimSpace(c.Get(SubjectHeader))
	if subject == "" {
		return apperrors.NewUnauthorized("missing " + SubjectHeader + " header")
	}

	claims, err := m.verifier.Verify(c.UserContext(), token, subject)
	if err != nil {
		return HTTPError(err)
	}

	user, err := m.users.GetByEmail(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.Active() {
		return apperrors.NewForbidden("user inactive")
	}

	c.Locals(principalKey, &Principal{Claims: claims, User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// HTTPError maps a token error onto an HTTP error. Verification failures are
// 401 with the token error code; signing failures are 500.
func HTTPError(err error) error {
	var tokenErr *Error
	if !errors.As(err, &tokenErr) {
		return apperrors.MapError(err)
	}
	if tokenErr.Code == CodeSigningError {
		return &apperrors.DomainError{
			Code:       string(tokenErr.Code),
			Message:    tokenErr.Message,
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	}
	return apperrors.NewUnauthorizedCode(string(tokenErr.Code), tokenErr.Message, err)
}
