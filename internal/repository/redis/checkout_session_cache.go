package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/model"
	"storefront/internal/util"
)

// ErrSessionNotFound is returned when a checkout session does not exist
// or its TTL has elapsed. Redis expiry makes the two indistinguishable.
var ErrSessionNotFound = errors.New("checkout session not found")

const (
	sessionKeyPrefix  = "checkout:session:"
	attemptsKeyPrefix = "checkout:attempts:"
)

// CheckoutSessionStore holds pending checkout sessions for the duration
// of the email verification window.
type CheckoutSessionStore interface {
	CreateSession(ctx context.Context, s *model.CheckoutSession) error
	GetSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	// UpdateSession rewrites the session payload without touching the
	// remaining TTL. Returns ErrSessionNotFound when the key is gone.
	UpdateSession(ctx context.Context, s *model.CheckoutSession) error
	// ConsumeSession atomically fetches and deletes the session so a
	// session can be placed as an order at most once.
	ConsumeSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	IncrementAttempts(ctx context.Context, sessionID string) (int64, error)
}

type checkoutSessionCache struct {
	redis *client.RedisClient
}

func NewCheckoutSessionStore(redisClient *client.RedisClient, logger *zap.Logger) CheckoutSessionStore {
	return &checkoutSessionCache{redis: redisClient}
}

func (c *checkoutSessionCache) CreateSession(ctx context.Context, s *model.CheckoutSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode checkout session: %w", err)
	}

	ok, err := c.redis.SetNX(ctx, sessionKeyPrefix+s.SessionID, payload, model.CheckoutSessionTTL)
	if err != nil {
		util.Error("Failed to store checkout session",
			zap.String("session_id", s.SessionID),
			zap.Error(err))
		return fmt.Errorf("failed to store checkout session: %w", err)
	}
	if !ok {
		return fmt.Errorf("checkout session %s already exists", s.SessionID)
	}

	util.Debug("Checkout session stored",
		zap.String("session_id", s.SessionID),
		zap.String("user_id", s.UserID))

	return nil
}

func (c *checkoutSessionCache) GetSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	raw, err := c.redis.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if err == client.ErrKeyNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	return decodeSession(raw)
}

func (c *checkoutSessionCache) UpdateSession(ctx context.Context, s *model.CheckoutSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode checkout session: %w", err)
	}

	ok, err := c.redis.UpdateKeepTTL(ctx, sessionKeyPrefix+s.SessionID, payload)
	if err != nil {
		return fmt.Errorf("failed to update checkout session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}

	return nil
}

func (c *checkoutSessionCache) ConsumeSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	raw, err := c.redis.GetDel(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if err == client.ErrKeyNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to consume checkout session: %w", err)
	}

	util.Debug("Checkout session consumed", zap.String("session_id", sessionID))
	return decodeSession(raw)
}

func (c *checkoutSessionCache) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.redis.Del(ctx, sessionKeyPrefix+sessionID, attemptsKeyPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to delete checkout session: %w", err)
	}
	return nil
}

func (c *checkoutSessionCache) IncrementAttempts(ctx context.Context, sessionID string) (int64, error) {
	// Attempts expire alongside the session window
	count, err := c.redis.IncrWithExpire(ctx, attemptsKeyPrefix+sessionID, model.CheckoutSessionTTL)
	if err != nil {
		return 0, fmt.Errorf("failed to count verification attempts: %w", err)
	}
	return count, nil
}

func decodeSession(raw string) (*model.CheckoutSession, error) {
	s := &model.CheckoutSession{}
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return s, nil
}
