package connection

import (
	"context"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hynox/vox/internal/infrastructure/redis"
)

// Durable record keys. Absence of either key means "not connected".
const (
	recordKeyFileURL  = "hynox_excel_file_url"
	recordKeyFileName = "hynox_excel_file_name"
)

// RecordStore persists the connection record. Get returns "" for a missing
// key.
type RecordStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// RedisStore keeps records in Redis so they survive restarts.
type RedisStore struct {
	redisService *redis.Service
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := rs.redisService.Get(ctx, key)
	if err == goredis.Nil {
		return "", nil
	}
	return val, err
}

func (rs *RedisStore) Set(ctx context.Context, key, value string) error {
	return rs.redisService.Set(ctx, key, value, 0)
}

func (rs *RedisStore) Clear(ctx context.Context, key string) error {
	return rs.redisService.Delete(ctx, key)
}

// MemoryStore is the in-process fallback when Redis is unavailable.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]string)}
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.records[key], nil
}

func (ms *MemoryStore) Set(ctx context.Context, key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.records[key] = value
	return nil
}

func (ms *MemoryStore) Clear(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.records, key)
	return nil
}
