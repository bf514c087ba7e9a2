package service

import (
	"context"
	"fmt"
	"time"

	"medledger/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TokenStore tracks issued tokens in Redis. A token is valid only while its
// key exists, so deleting the key revokes it.
type TokenStore interface {
	Store(ctx context.Context, subject string, tokenType jwt.TokenType, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, subject string, tokenType jwt.TokenType, tokenID string) (bool, error)
	Revoke(ctx context.Context, subject string, tokenType jwt.TokenType, tokenID string) error
	RevokeAll(ctx context.Context, subject string) error
}

type redisTokenStore struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewTokenStore(redisClient *redis.Client, log *logrus.Logger) TokenStore {
	return &redisTokenStore{redisClient: redisClient, log: log}
}

// TokenKey builds access_token:<subject>:<token_id> or the refresh variant.
func TokenKey(subject string, tokenType jwt.TokenType, tokenID string) string {
	return fmt.Sprintf("%s_token:%s:%s", tokenType, subject, tokenID)
}

func (s *redisTokenStore) Store(ctx context.Context, subject string, tokenType jwt.TokenType, tokenID string, ttl time.Duration) error {
	if err := s.redisClient.Set(ctx, TokenKey(subject, tokenType, tokenID), "valid", ttl).Err(); err != nil {
		s.log.Warnf("Failed to store %s token in Redis: %+v", tokenType, err)
		return err
	}
	return nil
}

func (s *redisTokenStore) Exists(ctx context.Context, subject string, tokenType jwt.TokenType, tokenID string) (bool, error) {
	exists, err := s.redisClient.Exists(ctx, TokenKey(subject, tokenType, tokenID)).Result()
	if err != nil {
		s.log.Warnf("Failed to check token validity: %+v", err)
		return false, err
	}
	return exists > 0, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, subject string, tokenType jwt.TokenType, tokenID string) error {
	if err := s.redisClient.Del(ctx, TokenKey(subject, tokenType, tokenID)).Err(); err != nil {
		s.log.Warnf("Failed to delete %s token: %+v", tokenType, err)
		return err
	}
	return nil
}

// RevokeAll deletes every access and refresh token of the subject. SCAN is
// used instead of KEYS so a large keyspace does not block Redis.
func (s *redisTokenStore) RevokeAll(ctx context.Context, subject string) error {
	for _, tokenType := range []jwt.TokenType{jwt.AccessToken, jwt.RefreshToken} {
		pattern := TokenKey(subject, tokenType, "*")
		iter := s.redisClient.Scan(ctx, 0, pattern, 200).Iterator()

		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			s.log.Warnf("Failed to scan %s token keys: %+v", tokenType, err)
			return err
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
			s.log.Warnf("Failed to delete %s tokens: %+v", tokenType, err)
			return err
		}
	}
	return nil
}
