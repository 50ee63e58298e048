package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token sent with each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token unchanged.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

type actorKey struct{}

// WithActor records the operator on whose behalf upstream calls are made.
func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorKey{}, email)
}

// Actor returns the operator recorded by WithActor.
func Actor(ctx context.Context) string {
	s, _ := ctx.Value(actorKey{}).(string)
	return s
}

// SignedTokens issues short-lived HS256 service tokens whose subject is the
// acting operator.
type SignedTokens struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// Token signs a fresh token for the actor in ctx.
func (s SignedTokens) Token(ctx context.Context) (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("marketplace: token secret is empty")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	issued := now()
	subject := Actor(ctx)
	if subject == "" {
		subject = "backoffice"
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
	})
	return token.SignedString(s.Secret)
}
