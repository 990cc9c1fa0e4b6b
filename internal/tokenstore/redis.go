package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakachris/ecom-frontend/internal/domain"
)

// RedisStore keeps each credential record in a Redis hash keyed by session
// ID. Hash fields let Save update individual credentials without rewriting
// the record.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. Records expire after ttl of
// inactivity; every Save and Load slides the expiry forward.
func NewRedisStore(client *redis.Client, logger *slog.Logger, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(sid string) string {
	return fmt.Sprintf("session:%s", sid)
}

// Save writes only the fields present in rec. Empty fields are skipped, so a
// record holding just an email (written during registration) does not erase
// tokens saved later, and vice versa.
func (s *RedisStore) Save(ctx context.Context, sid string, rec domain.Credentials) error {
	fields := make([]any, 0, 10)
	if rec.Access != "" {
		fields = append(fields, FieldAccess, rec.Access)
	}
	if rec.Refresh != "" {
		fields = append(fields, FieldRefresh, rec.Refresh)
	}
	if rec.Email != "" {
		fields = append(fields, FieldEmail, rec.Email)
	}
	if rec.FirstName != "" {
		fields = append(fields, FieldFirstName, rec.FirstName)
	}
	if rec.LastName != "" {
		fields = append(fields, FieldLastName, rec.LastName)
	}
	if len(fields) == 0 {
		return nil
	}

	key := s.key(sid)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, fields...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear deletes the record and its cached profile.
func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Load reads the record. Backend failures are logged and swallowed: the
// caller gets a zero record and carries on unauthenticated.
func (s *RedisStore) Load(ctx context.Context, sid string) (domain.Credentials, error) {
	key := s.key(sid)
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		s.logger.WarnContext(ctx, "credential load failed, treating as signed out",
			slog.String("error", err.Error()))
		return domain.Credentials{}, nil
	}
	if len(vals) == 0 {
		return domain.Credentials{}, nil
	}

	s.client.Expire(ctx, key, s.ttl)

	return domain.Credentials{
		Access:    vals[FieldAccess],
		Refresh:   vals[FieldRefresh],
		Email:     vals[FieldEmail],
		FirstName: vals[FieldFirstName],
		LastName:  vals[FieldLastName],
	}, nil
}

// SaveProfile caches the serialized profile in the record's hash.
func (s *RedisStore) SaveProfile(ctx context.Context, sid string, raw []byte) error {
	key := s.key(sid)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, FieldProfile, raw)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Profile returns the cached profile blob. Absence and backend failure both
// yield nil; the caller falls back to the upstream.
func (s *RedisStore) Profile(ctx context.Context, sid string) ([]byte, error) {
	raw, err := s.client.HGet(ctx, s.key(sid), FieldProfile).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "profile cache read failed",
			slog.String("error", err.Error()))
		return nil, nil
	}
	return raw, nil
}
