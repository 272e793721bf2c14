package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

const HeaderIdempotencyKey = "Idempotency-Key"

var ErrDuplicate = errors.New("duplicate request")

// Service records keys that were already processed.
type Service interface {
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) error
	Forget(ctx context.Context, key string) error
}

// Claimer is the subset of the Redis cache used for deduplication.
type Claimer interface {
	Key(parts ...string) string
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisService struct {
	store Claimer
}

// NewRedisService builds a Service backed by SET NX.
func NewRedisService(store Claimer) Service {
	return &redisService{store: store}
}

func (s *redisService) CheckAndSet(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := s.store.Claim(ctx, s.store.Key("idempotency", key), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (s *redisService) Forget(ctx context.Context, key string) error {
	return s.store.Release(ctx, s.store.Key("idempotency", key))
}

// DeriveKey prefers the delivery id header and falls back to a body hash.
func DeriveKey(h http.Header, header string, body []byte) string {
	if header != "" {
		if v := strings.TrimSpace(h.Get(header)); v != "" {
			return v
		}
	}
	if len(body) == 0 {
		return ""
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// KeyWithNamespace scopes key to a webhook slug.
func KeyWithNamespace(slug, key string) string {
	return "webhook:" + normalizeSlug(slug) + ":" + key
}
