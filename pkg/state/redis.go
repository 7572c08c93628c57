// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is the default TTL for a tenant's history snapshot in Redis (30 days)
	DefaultTTL = 30 * 24 * time.Hour
	// KeyPrefix is the prefix for all history snapshot keys
	KeyPrefix = "realm_guard:history:"
)

// HistoryStore persists a tenant's player history between connections.
type HistoryStore interface {
	LoadHistory(ctx context.Context, tenant string) ([]PlayerHistoryRecord, error)
	SaveHistory(ctx context.Context, tenant string, records []PlayerHistoryRecord) error
}

// RedisHistoryStore implements HistoryStore as one Redis hash per tenant,
// mapping xuid to the JSON-encoded record.
type RedisHistoryStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisHistoryStore creates a new Redis-backed history store.
// ttl <= 0 uses DefaultTTL.
func NewRedisHistoryStore(client redis.UniversalClient, ttl time.Duration) *RedisHistoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisHistoryStore{
		client: client,
		ttl:    ttl,
	}
}

// makeKey creates a Redis key for a tenant
func makeKey(tenant string) string {
	return fmt.Sprintf("%s%s", KeyPrefix, tenant)
}

// LoadHistory retrieves a tenant's history snapshot. A missing snapshot
// yields no records. Entries that cannot be decoded are skipped.
func (r *RedisHistoryStore) LoadHistory(ctx context.Context, tenant string) ([]PlayerHistoryRecord, error) {
	key := makeKey(tenant)

	entries, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		logrus.Errorf("failed to get history for tenant %s: %v", tenant, err)
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	records := make([]PlayerHistoryRecord, 0, len(entries))
	for xuid, data := range entries {
		var record PlayerHistoryRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			logrus.Warnf("skipping unreadable history record %s for tenant %s: %v", xuid, tenant, err)
			continue
		}
		if record.XUID == "" {
			record.XUID = xuid
		}
		records = append(records, record)
	}

	logrus.Infof("retrieved %d history records for tenant %s", len(records), tenant)
	return records, nil
}

// SaveHistory replaces a tenant's history snapshot and refreshes its TTL.
func (r *RedisHistoryStore) SaveHistory(ctx context.Context, tenant string, records []PlayerHistoryRecord) error {
	key := makeKey(tenant)

	values := make(map[string]interface{}, len(records))
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			logrus.Errorf("failed to marshal history record %s for tenant %s: %v", record.XUID, tenant, err)
			return fmt.Errorf("failed to marshal history record: %w", err)
		}
		values[record.XUID] = data
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to save history for tenant %s: %v", tenant, err)
		return fmt.Errorf("failed to save history: %w", err)
	}

	logrus.Infof("saved %d history records for tenant %s with TTL %v", len(records), tenant, r.ttl)
	return nil
}

// DeleteHistory deletes a tenant's history snapshot.
func (r *RedisHistoryStore) DeleteHistory(ctx context.Context, tenant string) error {
	key := makeKey(tenant)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		logrus.Errorf("failed to delete history for tenant %s: %v", tenant, err)
		return fmt.Errorf("failed to delete history: %w", err)
	}

	logrus.Infof("deleted history for tenant %s", tenant)
	return nil
}
