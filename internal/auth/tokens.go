// Package auth emite e valida tokens de sessão e aplica as permissões por papel.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// Claims é o conteúdo do token: identifica a conta e o papel.
type Claims struct {
	UserID   string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens emite e valida JWT HS256.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue gera o token da conta e devolve também a expiração.
func (t *Tokens) Issue(a *domain.Account) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID:   a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse valida assinatura e expiração.
// Token ausente ou expirado: domain.ErrUnauthorized (401); inválido: domain.ErrForbidden (403).
func (t *Tokens) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: token required", domain.ErrUnauthorized)
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
	case err != nil:
		return nil, fmt.Errorf("%w: invalid token", domain.ErrForbidden)
	case claims.UserID == "":
		return nil, fmt.Errorf("%w: invalid token", domain.ErrForbidden)
	}
	return claims, nil
}

type ctxKey struct{}

// WithClaims anexa as claims autenticadas ao contexto da requisição.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext devolve as claims gravadas por WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}
