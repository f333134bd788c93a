package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "user-directory-service/pkg/errors"
)

// ErrInvalidToken is returned for tokens no authenticator recognizes.
var ErrInvalidToken = apperrors.NewUnauthorizedError("Invalid or expired token")

// Authenticator resolves a bearer token to the ID of the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// StaticAuthenticator checks tokens against a fixed table.
type StaticAuthenticator struct {
	tokens map[string]string
}

// NewStaticAuthenticator creates an authenticator over token -> user ID pairs.
func NewStaticAuthenticator(tokens map[string]string) *StaticAuthenticator {
	copied := make(map[string]string, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return &StaticAuthenticator{tokens: copied}
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if uid, ok := a.tokens[token]; ok && token != "" {
		return uid, nil
	}
	return "", ErrInvalidToken
}

// SessionAuthenticator looks tokens up in Redis under prefix+token.
type SessionAuthenticator struct {
	client *redis.Client
	prefix string
}

// NewSessionAuthenticator creates a Redis-backed session authenticator.
func NewSessionAuthenticator(client *redis.Client, prefix string) *SessionAuthenticator {
	return &SessionAuthenticator{client: client, prefix: prefix}
}

func (a *SessionAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	uid, err := a.client.Get(ctx, a.prefix+token).Result()
	if errors.Is(err, redis.Nil) || (err == nil && uid == "") {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("session lookup: %w", err)
	}
	return uid, nil
}

// CreateSession issues a new token for userID that expires after ttl.
func (a *SessionAuthenticator) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := a.client.Set(ctx, a.prefix+token, userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// Chain tries each authenticator in order and returns the first match.
type Chain struct {
	authenticators []Authenticator
	log            *zap.Logger
}

// NewChain builds a Chain. Nil authenticators are skipped.
func NewChain(log *zap.Logger, authenticators ...Authenticator) *Chain {
	c := &Chain{log: log}
	for _, a := range authenticators {
		if a != nil {
			c.authenticators = append(c.authenticators, a)
		}
	}
	return c
}

// Authenticate returns ErrInvalidToken when every authenticator rejects the
// token, or the last lookup failure when none could answer.
func (c *Chain) Authenticate(ctx context.Context, token string) (string, error) {
	var lookupErr error
	for _, a := range c.authenticators {
		uid, err := a.Authenticate(ctx, token)
		if err == nil {
			return uid, nil
		}
		var unauthorized *apperrors.UnauthorizedError
		if !errors.As(err, &unauthorized) {
			c.log.Warn("authenticator failed", zap.Error(err))
			lookupErr = err
		}
	}
	if lookupErr != nil {
		return "", lookupErr
	}
	return "", ErrInvalidToken
}
