package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aramartialarts/portal-backend/internal/config"
)

// Token verification errors. Expiry is distinct from structural or
// signature failures so callers can show "session expired" versus
// "bad token".
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// ScopePortal is the only scope issued for student sessions.
const ScopePortal = "portal"

// PortalClaims is the signed claim set of a session token. The subject is
// the canonical (stored-case) student id.
type PortalClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// TokenService mints and verifies stateless session tokens. There is no
// revocation list; a token stays valid until its natural expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService from the immutable startup config.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue creates a signed session token for the given student identity.
func (s *TokenService) Issue(studentID string) (string, error) {
	now := s.now()

	claims := PortalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Scope: ScopePortal,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
// Returns ErrTokenExpired for an otherwise well-formed but expired token
// and ErrTokenInvalid for everything else.
func (s *TokenService) Verify(tokenStr string) (*PortalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &PortalClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*PortalClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Scope != ScopePortal {
		return nil, fmt.Errorf("%w: wrong scope", ErrTokenInvalid)
	}
	return claims, nil
}
