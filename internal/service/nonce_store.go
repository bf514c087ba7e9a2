package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// WalletNonceTTL is how long a wallet has to sign the login message.
const WalletNonceTTL = 5 * time.Minute

const walletNonceKeyPrefix = "wallet_nonce:"

// NonceStore keeps one pending login message per wallet address.
type NonceStore interface {
	Put(ctx context.Context, address, message string) error
	// Consume returns the stored message and deletes it; "" when missing.
	Consume(ctx context.Context, address string) (string, error)
}

type redisNonceStore struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewNonceStore(redisClient *redis.Client, log *logrus.Logger) NonceStore {
	return &redisNonceStore{redisClient: redisClient, log: log}
}

func (s *redisNonceStore) Put(ctx context.Context, address, message string) error {
	key := walletNonceKeyPrefix + strings.ToLower(address)
	if err := s.redisClient.Set(ctx, key, message, WalletNonceTTL).Err(); err != nil {
		s.log.Warnf("Failed to store wallet nonce: %+v", err)
		return err
	}
	return nil
}

func (s *redisNonceStore) Consume(ctx context.Context, address string) (string, error) {
	key := walletNonceKeyPrefix + strings.ToLower(address)
	message, err := s.redisClient.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		s.log.Warnf("Failed to consume wallet nonce: %+v", err)
		return "", err
	}
	return message, nil
}
