package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultIssuer is the iss claim used when no issuer is configured.
	DefaultIssuer = "example_system"
	// DefaultLifetime is the validity window of an issued token.
	DefaultLifetime = 8 * time.Hour
)

var signingMethod = jwt.SigningMethodHS256

// TokenService issues and verifies HS256 bearer tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithLifetime overrides the token lifetime. Non-positive values are ignored.
func WithLifetime(lifetime time.Duration) TokenOption {
	return func(s *TokenService) {
		if lifetime > 0 {
			s.lifetime = lifetime
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService binds the signing secret. The secret is copied so later
// changes to the caller's slice have no effect.
func NewTokenService(secret []byte, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret:   append([]byte(nil), secret...),
		issuer:   DefaultIssuer,
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for an already authenticated subject.
func Issue(secret []byte, subject string) (string, error) {
	return NewTokenService(secret).Issue(subject)
}

// Verify checks token against secret and the subject the caller asserts.
func Verify(secret []byte, token, expectedSubject string) (Claims, error) {
	return NewTokenService(secret).Verify(token, expectedSubject)
}

// Issuer returns the configured iss claim.
func (s *TokenService) Issuer() string {
	return s.issuer
}

// Lifetime returns the configured token lifetime.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue builds and signs claims for subject. Audience is set to subject.
func (s *TokenService) Issue(subject string) (string, error) {
	token, _, err := s.IssueClaims(subject)
	return token, err
}

// IssueClaims is Issue that also returns the claims that were signed.
func (s *TokenService) IssueClaims(subject string) (string, Claims, error) {
	if len(s.secret) == 0 {
		return "", Claims{}, newError(CodeSigningError, errors.New("signing secret is empty"))
	}
	if strings.TrimSpace(subject) == "" {
		return "", Claims{}, newError(CodeSigningError, errors.New("subject is empty"))
	}

	now := s.now().Truncate(time.Second)
	claims := Claims{
		Issuer:    s.issuer,
		Audience:  subject,
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.lifetime).Unix(),
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", Claims{}, newError(CodeSigningError, err)
	}
	return signed, claims, nil
}

// Verify validates signature, expiry, issuer and subject binding, in that
// order, and returns the decoded claims.
func (s *TokenService) Verify(tokenStr, expectedSubject string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, newError(CodeSignatureInvalid, errors.New("verification secret is empty"))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && signatureSegmentOnly(parser, tokenStr) {
			return Claims{}, newError(CodeSignatureInvalid, err)
		}
		return Claims{}, classify(err)
	}

	if claims.Subject == "" || claims.Audience == "" || claims.ExpiresAt <= claims.IssuedAt {
		return Claims{}, newError(CodeMalformedToken, errors.New("claims incomplete"))
	}
	if expectedSubject == "" {
		return Claims{}, newError(CodeSubjectMismatch, errors.New("expected subject is required"))
	}
	if claims.Audience != expectedSubject || claims.Subject != expectedSubject {
		return Claims{}, newError(CodeSubjectMismatch, nil)
	}
	return claims, nil
}

// signatureSegmentOnly reports whether header and payload parse cleanly, so
// a malformed result can only come from the signature segment.
func signatureSegmentOnly(parser *jwt.Parser, tokenStr string) bool {
	_, _, err := parser.ParseUnverified(tokenStr, &Claims{})
	return err == nil
}

// classify maps golang-jwt failures onto the token taxonomy. Claim validation
// errors are joined by the library, so precedence follows verify order.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return newError(CodeMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return newError(CodeSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newError(CodeTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return newError(CodeIssuerMismatch, err)
	default:
		return newError(CodeMalformedToken, err)
	}
}
