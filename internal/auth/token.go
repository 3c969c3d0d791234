package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"atspro/internal/config"
	"atspro/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionAudience = "atspro-session"
	stateAudience   = "atspro-oauth-state"
	stateTTL        = 10 * time.Minute
)

var ErrInvalidToken = stderrors.New("invalid or expired token")

// Claims are carried by every session token. Subject is the user id.
type Claims struct {
	Role      models.UserRole `json:"role"`
	SessionID string          `json:"sid"`
	jwt.RegisteredClaims
}

// Session is a freshly issued token.
type Session struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "atspro"
	}
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue creates a session token for the user.
func (t *TokenIssuer) Issue(userID string, role models.UserRole) (*Session, error) {
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	sid := uuid.NewString()

	claims := Claims{
		Role:      role,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        sid,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: signed, SessionID: sid, ExpiresAt: exp}, nil
}

// Parse verifies signature, issuer, audience and expiry.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	claims, err := t.parse(token, sessionAudience)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) parse(token, audience string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// SignState produces the OAuth state parameter. It carries the role chosen
// before the redirect so the callback can create the right kind of account.
func (t *TokenIssuer) SignState(role models.UserRole) (string, error) {
	now := t.now().UTC()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// ParseState returns the role embedded by SignState.
func (t *TokenIssuer) ParseState(state string) (models.UserRole, error) {
	claims, err := t.parse(state, stateAudience)
	if err != nil {
		return "", err
	}
	if !claims.Role.Valid() {
		return "", ErrInvalidToken
	}
	return claims.Role, nil
}
