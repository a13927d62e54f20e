package redisstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cardquery/internal/domain/models"
	"cardquery/internal/domain/repositories"
)

// RedisIdentityStore keeps licenses in redis:
//
//	<prefix>:licenses          set of active keys
//	<prefix>:license:<key>     hash {email, created_at}
//	<prefix>:email:<email>     key provisioned for email
//	<prefix>:session:<id>      key provisioned by a checkout session
type RedisIdentityStore struct {
	rdb    *redis.Client
	prefix string
}

type Option func(*RedisIdentityStore)

func WithPrefix(prefix string) Option {
	return func(s *RedisIdentityStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

// NewIdentityStore creates a redis-backed identity store
func NewIdentityStore(rdb *redis.Client, opts ...Option) repositories.IdentityStore {
	s := &RedisIdentityStore{
		rdb:    rdb,
		prefix: "cardquery",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisIdentityStore) setKey() string               { return s.prefix + ":licenses" }
func (s *RedisIdentityStore) licenseKey(key string) string { return s.prefix + ":license:" + key }
func (s *RedisIdentityStore) emailKey(email string) string { return s.prefix + ":email:" + email }
func (s *RedisIdentityStore) sessionKey(id string) string  { return s.prefix + ":session:" + id }

func (s *RedisIdentityStore) IsValid(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, s.setKey(), key).Result()
	if err != nil {
		return false, fmt.Errorf("check license: %w", err)
	}
	return ok, nil
}

// Add claims the email index and then the key in the license set, so
// concurrent adds for the same email or key resolve to exactly one winner.
func (s *RedisIdentityStore) Add(ctx context.Context, license *models.License) (bool, error) {
	if license.Email != "" {
		claimed, err := s.rdb.SetNX(ctx, s.emailKey(license.Email), license.Key, 0).Result()
		if err != nil {
			return false, fmt.Errorf("claim email: %w", err)
		}
		if !claimed {
			return false, nil
		}
	}

	added, err := s.rdb.SAdd(ctx, s.setKey(), license.Key).Result()
	if err != nil || added == 0 {
		if license.Email != "" {
			s.releaseEmail(ctx, license.Email, license.Key)
		}
		if err != nil {
			return false, fmt.Errorf("add license: %w", err)
		}
		return false, nil
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.licenseKey(license.Key),
		"email", license.Email,
		"created_at", license.CreatedAt.UTC().Format(time.RFC3339),
	)
	if license.SessionID != "" {
		pipe.SetNX(ctx, s.sessionKey(license.SessionID), license.Key, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("store license: %w", err)
	}
	return true, nil
}

func (s *RedisIdentityStore) FindByEmail(ctx context.Context, email string) (string, error) {
	return s.get(ctx, s.emailKey(email))
}

func (s *RedisIdentityStore) FindBySession(ctx context.Context, sessionID string) (string, error) {
	return s.get(ctx, s.sessionKey(sessionID))
}

func (s *RedisIdentityStore) LinkSession(ctx context.Context, sessionID, key string) error {
	if err := s.rdb.SetNX(ctx, s.sessionKey(sessionID), key, 0).Err(); err != nil {
		return fmt.Errorf("link session: %w", err)
	}
	return nil
}

func (s *RedisIdentityStore) Count(ctx context.Context) (int, error) {
	n, err := s.rdb.SCard(ctx, s.setKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count licenses: %w", err)
	}
	return int(n), nil
}

func (s *RedisIdentityStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// releaseEmail drops the email claim if it still points at key.
func (s *RedisIdentityStore) releaseEmail(ctx context.Context, email, key string) {
	k := s.emailKey(email)
	_ = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		if v, err := tx.Get(ctx, k).Result(); err != nil || v != key {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, k)
			return nil
		})
		return err
	}, k)
}

func (s *RedisIdentityStore) get(ctx context.Context, k string) (string, error) {
	v, err := s.rdb.Get(ctx, k).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find license: %w", err)
	}
	return v, nil
}
