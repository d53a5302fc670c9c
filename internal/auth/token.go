package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "intelhub"

var (
	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("auth secret is not configured")
)

// Claims represents JWT claims used across the service.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens with a shared secret.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens returns a Tokens for secret. Secrets shorter than 16 bytes are
// refused.
func NewTokens(secret string) (*Tokens, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < 16 {
		return nil, errors.New("auth secret must be at least 16 bytes")
	}
	return &Tokens{secret: []byte(secret), now: func() time.Time { return time.Now().UTC() }}, nil
}

// Issue signs a token for userID carrying the given roles. Unknown roles
// are rejected.
func (t *Tokens) Issue(userID string, roles []string, ttl time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("userID is required")
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("ttl must be greater than zero")
	}
	roles = NormalizeRoles(roles)
	if len(roles) == 0 {
		return "", time.Time{}, errors.New("at least one role is required")
	}
	for _, r := range roles {
		if !Role(r).Valid() {
			return "", time.Time{}, fmt.Errorf("unknown role %q", r)
		}
	}

	now := t.now()
	expires := now.Add(ttl)
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies the signature and required claims and returns the claims.
func (t *Tokens) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(5*time.Second),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	claims.Roles = NormalizeRoles(claims.Roles)
	return claims, nil
}
