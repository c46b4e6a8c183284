package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/idp-service/internal/domain"
	"github.com/spec-kit/idp-service/internal/repository"
	apperrors "github.com/spec-kit/idp-service/pkg/util"
)

type serviceVerifier struct {
	tokens *TokenService
}

func (v serviceVerifier) Verify(_ context.Context, token, subject string) (Claims, error) {
	return v.tokens.Verify(token, subject)
}

func newMiddlewareApp(t *testing.T) (*fiber.App, *TokenService, repository.UserRepository) {
	t.Helper()

	tokens := NewTokenService(testSecret)
	users := repository.NewMemoryUserRepository()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	mw := NewAuthMiddleware(serviceVerifier{tokens: tokens}, users)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"subject": principal.Claims.Subject, "name": principal.User.Name})
	})
	return app, tokens, users
}

func doGet(t *testing.T, app *fiber.App, headers map[string]string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens, users := newMiddlewareApp(t)

	addr, err := domain.ParseMailAddress("alice@example.com")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), domain.NewUser("Alice", addr, "hash")))

	token, err := tokens.Issue("alice@example.com")
	require.NoError(t, err)
	orphan, err := tokens.Issue("ghost@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{"missing header", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"missing subject", map[string]string{"Authorization": "Bearer " + token}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"subject mismatch", map[string]string{"Authorization": "Bearer " + token, SubjectHeader: "bob@example.com"}, http.StatusUnauthorized, string(CodeSubjectMismatch)},
		{"malformed", map[string]string{"Authorization": "Bearer nope", SubjectHeader: "alice@example.com"}, http.StatusUnauthorized, string(CodeMalformedToken)},
		{"unknown user", map[string]string{"Authorization": "Bearer " + orphan, SubjectHeader: "ghost@example.com"}, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doGet(t, app, tt.headers)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}

	status, body := doGet(t, app, map[string]string{
		"Authorization": "bearer " + token,
		SubjectHeader:   "alice@example.com",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice@example.com", body["subject"])
	assert.Equal(t, "Alice", body["name"])
}

func TestHTTPError(t *testing.T) {
	de := apperrors.ToDomainError(HTTPError(newError(CodeTokenExpired, nil)))
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, "TOKEN_EXPIRED", de.Code)

	de = apperrors.ToDomainError(HTTPError(newError(CodeSigningError, nil)))
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "SIGNING_ERROR", de.Code)

	de = apperrors.ToDomainError(HTTPError(assert.AnError))
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
}
