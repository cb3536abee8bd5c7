package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meeting-attendance/internal/storage"
	"meeting-attendance/internal/token"
)

var (
	ErrRevoked          = errors.New("session has been revoked")
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
)

var tokenSignatureAlg = jwt.SigningMethodHS256

// AuthClaims identify a logged in HR or scanner account.
type AuthClaims struct {
	Email string       `json:"email"`
	Name  string       `json:"name"`
	Role  storage.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric account id carried in the subject.
func (c *AuthClaims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Manager signs session tokens and checks them against the Store.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
}

func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, store: store}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for user and records its jti.
func (m *Manager) Issue(ctx context.Context, user *storage.User) (string, *AuthClaims, error) {
	jti, err := token.New()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	if err := m.store.Put(ctx, jti, m.ttl); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	now := time.Now().UTC()
	claims := &AuthClaims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(tokenSignatureAlg, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify decodes a token and checks its session has not been revoked.
func (m *Manager) Verify(ctx context.Context, tokenString string) (*AuthClaims, error) {
	claims, err := decodeJWT(m.secret, tokenString, &AuthClaims{})
	if err != nil {
		return nil, err
	}
	if !m.store.Exists(ctx, claims.ID) {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke ends the session behind claims.
func (m *Manager) Revoke(ctx context.Context, claims *AuthClaims) error {
	ok, err := m.store.Consume(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRevoked
	}
	return nil
}

func decodeJWT[T jwt.Claims](secret []byte, tokenString string, claimsType T) (T, error) {
	var zero T

	parsedToken, err := jwt.ParseWithClaims(tokenString, claimsType, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}))

	if err != nil {
		return zero, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return zero, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(T); ok {
		return claims, nil
	}

	return zero, ErrInvalidClaimType
}
