package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/idp-service/internal/auth"
	"github.com/spec-kit/idp-service/internal/config"
	"github.com/spec-kit/idp-service/internal/domain"
	"github.com/spec-kit/idp-service/internal/events"
	"github.com/spec-kit/idp-service/internal/ratelimit"
	"github.com/spec-kit/idp-service/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive")
	ErrTooManyAttempts    = errors.New("too many sign-in attempts")
)

// AuthService coordinates registration, sign-in and token verification.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenService
	limiter    ratelimit.Limiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Limiter    ratelimit.Limiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAuthService builds the service. The signing secret is bound here once.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.Policy{
			MaxAttempts: cfg.Auth.LoginMaxAttempts,
			Window:      cfg.Auth.LoginWindow(),
		}, deps.Clock)
	}

	return &AuthService{
		users: deps.UserRepo,
		tokens: auth.NewTokenService(cfg.Auth.SecretBytes(),
			auth.WithIssuer(cfg.Auth.TokenIssuer),
			auth.WithLifetime(cfg.Auth.TokenTTL()),
			auth.WithClock(deps.Clock),
		),
		limiter:    limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, *domain.IssuedToken, error) {
	addr, err := domain.ParseMailAddress(email)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByEmail(ctx, addr.String()); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := domain.NewUser(strings.TrimSpace(name), addr, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, addr.String(), events.UserRegisteredPayload{
		UserID: user.ID,
		Name:   user.Name,
	}))

	issued, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, issued, nil
}

// Login verifies credentials and signs a token for the account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.IssuedToken, error) {
	key := strings.ToLower(email)
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
		allowed = true
	}
	if !allowed {
		s.loginFailed(ctx, email, "throttled")
		return nil, nil, ErrTooManyAttempts
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Spend the same bcrypt work as a real account.
			_ = auth.ComparePassword(s.unknownAccountHash(), password)
			s.loginFailed(ctx, email, "unknown account")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.loginFailed(ctx, email, "password mismatch")
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Active() {
		s.loginFailed(ctx, email, "account inactive")
		return nil, nil, ErrUserInactive
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("login throttle reset failed", zap.Error(err))
	}

	issued, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, issued, nil
}

// Verify checks a presented token against the subject the caller asserts.
func (s *AuthService) Verify(ctx context.Context, token, subject string) (auth.Claims, error) {
	claims, err := s.tokens.Verify(token, subject)
	if err != nil {
		s.publish(ctx, events.NewEvent(events.EventTokenRejected, subject, events.TokenRejectedPayload{
			Code:   string(auth.CodeOf(err)),
			Reason: err.Error(),
		}))
		return auth.Claims{}, err
	}
	return claims, nil
}

// ChangePassword verifies the current password of the account identified by
// userID before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, user.Email.String(), nil))
	return nil
}

// TokenService exposes the underlying token service for middleware usage.
func (s *AuthService) TokenService() *auth.TokenService {
	return s.tokens
}

// Users exposes the user repository for middleware usage.
func (s *AuthService) Users() repository.UserRepository {
	return s.users
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*domain.IssuedToken, error) {
	subject := user.Email.String()
	token, claims, err := s.tokens.IssueClaims(subject)
	if err != nil {
		s.logger.Error("token signing failed", zap.String("subject", subject), zap.Error(err))
		return nil, err
	}

	issued := &domain.IssuedToken{
		Token:     token,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedTime(),
		ExpiresAt: claims.ExpiryTime(),
	}
	s.publish(ctx, events.NewEvent(events.EventTokenIssued, subject, events.TokenIssuedPayload{
		Issuer:    claims.Issuer,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}))
	return issued, nil
}

// unknownAccountHash returns a hash at the configured cost, generated once,
// for comparing passwords submitted for accounts that do not exist.
func (s *AuthService) unknownAccountHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("unknown-account", s.bcryptCost)
		if err != nil {
			s.logger.Warn("dummy hash generation failed", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	s.publish(ctx, events.NewEvent(events.EventLoginFailed, email, events.LoginFailedPayload{Reason: reason}))
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
