package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	pkgerrors "github.com/trthanhdo41/air-purifier-hcm-sub001/pkg/errors"
)

// SessionStore maps bearer tokens to customer ids. Entries are written by the
// auth provider under "session:<token>" and expire with the session.
type SessionStore struct {
	client *goredis.Client
	logger *zap.Logger
}

// NewSessionStore creates a new redis-backed session store
func NewSessionStore(client *goredis.Client, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		logger: logger,
	}
}

// Resolve returns the customer id owning token
func (s *SessionStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, &pkgerrors.ErrUnauthorized{Message: "missing token"}
	}

	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return uuid.Nil, &pkgerrors.ErrUnauthorized{Message: "unknown session"}
	}
	if err != nil {
		s.logger.Error("Failed to resolve session", zap.Error(err))
		return uuid.Nil, fmt.Errorf("redis get session: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		s.logger.Warn("Session holds malformed user id", zap.String("value", val))
		return uuid.Nil, &pkgerrors.ErrUnauthorized{Message: "invalid session"}
	}

	return userID, nil
}

// Put stores a session for userID that expires after ttl
func (s *SessionStore) Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}
