package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/util"
)

// Code purposes namespace the one-time code keys so an email
// verification code can never satisfy a password reset.
const (
	PurposeEmailVerify   = "email_verify"
	PurposePasswordReset = "password_reset"
)

const (
	codeTTL        = 15 * time.Minute
	resendCooldown = 60 * time.Second
)

var (
	ErrCodeNotFound  = errors.New("verification code not found")
	ErrResendTooSoon = errors.New("code recently sent")
)

// CodeStore keeps hashed one-time codes with a TTL and enforces a
// resend cooldown per user and purpose.
type CodeStore interface {
	StoreCode(ctx context.Context, purpose, userID, codeHash string) error
	GetCodeHash(ctx context.Context, purpose, userID string) (string, error)
	// ConsumeCode deletes the code after a successful match.
	ConsumeCode(ctx context.Context, purpose, userID string) error
	IncrementAttempts(ctx context.Context, purpose, userID string) (int64, error)
	// ClaimResendSlot returns ErrResendTooSoon while the cooldown from
	// the previous send is still running.
	ClaimResendSlot(ctx context.Context, purpose, userID string) error
}

type codeCache struct {
	redis *client.RedisClient
}

func NewCodeStore(redisClient *client.RedisClient, logger *zap.Logger) CodeStore {
	return &codeCache{redis: redisClient}
}

func codeKey(purpose, userID string) string {
	return fmt.Sprintf("code:%s:%s", purpose, userID)
}

func codeAttemptsKey(purpose, userID string) string {
	return fmt.Sprintf("code:attempts:%s:%s", purpose, userID)
}

func resendKey(purpose, userID string) string {
	return fmt.Sprintf("code:resend:%s:%s", purpose, userID)
}

func (c *codeCache) StoreCode(ctx context.Context, purpose, userID, codeHash string) error {
	if err := c.redis.Set(ctx, codeKey(purpose, userID), codeHash, codeTTL); err != nil {
		util.Error("Failed to store verification code",
			zap.String("purpose", purpose),
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	// A fresh code resets the attempt counter
	if err := c.redis.Del(ctx, codeAttemptsKey(purpose, userID)); err != nil {
		util.Warn("Failed to reset code attempt counter",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	return nil
}

func (c *codeCache) GetCodeHash(ctx context.Context, purpose, userID string) (string, error) {
	hash, err := c.redis.Get(ctx, codeKey(purpose, userID))
	if err != nil {
		if err == client.ErrKeyNotFound {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}
	return hash, nil
}

func (c *codeCache) ConsumeCode(ctx context.Context, purpose, userID string) error {
	if err := c.redis.Del(ctx, codeKey(purpose, userID), codeAttemptsKey(purpose, userID)); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	return nil
}

func (c *codeCache) IncrementAttempts(ctx context.Context, purpose, userID string) (int64, error) {
	count, err := c.redis.IncrWithExpire(ctx, codeAttemptsKey(purpose, userID), codeTTL)
	if err != nil {
		return 0, fmt.Errorf("failed to count code attempts: %w", err)
	}
	return count, nil
}

func (c *codeCache) ClaimResendSlot(ctx context.Context, purpose, userID string) error {
	ok, err := c.redis.SetNX(ctx, resendKey(purpose, userID), "1", resendCooldown)
	if err != nil {
		return fmt.Errorf("failed to claim resend slot: %w", err)
	}
	if !ok {
		return ErrResendTooSoon
	}
	return nil
}
