// Package staging holds statement batches that wait for a person to confirm
// their potential duplicates. Batches expire after a TTL.
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
)

const DefaultTTL = 30 * time.Minute

type Stager interface {
	Save(ctx context.Context, batch domain.StagedImport) error
	// Load returns a NotFoundError for unknown, expired or foreign tokens.
	Load(ctx context.Context, tenantID int32, token string) (*domain.StagedImport, error)
	Delete(ctx context.Context, token string) error
}

type RedisStager struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisStager(rdb redis.UniversalClient, ttl time.Duration) *RedisStager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStager{rdb: rdb, ttl: ttl, prefix: "statement_import:"}
}

func (s *RedisStager) key(token string) string {
	return s.prefix + token
}

func (s *RedisStager) Save(ctx context.Context, batch domain.StagedImport) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal staged import: %w", err)
	}
	logger.ExternalServiceCall("redis", "set", "token", batch.Token, "rows", len(batch.Rows))
	err = s.rdb.Set(ctx, s.key(batch.Token), data, s.ttl).Err()
	logger.ExternalServiceResult("redis", "set", err, "token", batch.Token)
	return err
}

func (s *RedisStager) Load(ctx context.Context, tenantID int32, token string) (*domain.StagedImport, error) {
	logger.ExternalServiceCall("redis", "get", "token", token)
	data, err := s.rdb.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.ExternalServiceResult("redis", "get", nil, "token", token, "found", false)
		return nil, domain.NewNotFoundKeyError("statement import", token)
	}
	logger.ExternalServiceResult("redis", "get", err, "token", token)
	if err != nil {
		return nil, err
	}

	var batch domain.StagedImport
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal staged import: %w", err)
	}
	if batch.TenantID != tenantID {
		return nil, domain.NewNotFoundKeyError("statement import", token)
	}
	return &batch, nil
}

func (s *RedisStager) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}

// MemoryStager keeps batches in process. It backs tests and single-node runs
// without redis.
type MemoryStager struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	batches map[string]memoryEntry
}

type memoryEntry struct {
	batch   domain.StagedImport
	expires time.Time
}

func NewMemoryStager(ttl time.Duration) *MemoryStager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStager{ttl: ttl, now: time.Now, batches: make(map[string]memoryEntry)}
}

func (s *MemoryStager) Save(_ context.Context, batch domain.StagedImport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = s.now()
	}
	s.batches[batch.Token] = memoryEntry{batch: batch, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStager) Load(_ context.Context, tenantID int32, token string) (*domain.StagedImport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.batches[token]
	if ok && s.now().After(e.expires) {
		delete(s.batches, token)
		ok = false
	}
	if !ok || e.batch.TenantID != tenantID {
		return nil, domain.NewNotFoundKeyError("statement import", token)
	}
	batch := e.batch
	return &batch, nil
}

func (s *MemoryStager) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, token)
	return nil
}
