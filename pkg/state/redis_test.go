// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestRedisHistoryStore_LoadEmpty(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisHistoryStore(client, 0)
	records, err := store.LoadHistory(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadHistory() returned %d records, expected 0", len(records))
	}
}

func TestRedisHistoryStore_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisHistoryStore(client, 0)
	seen := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	records := []PlayerHistoryRecord{
		{
			XUID:          "x1",
			Gamertag:      "Steve",
			FirstSeen:     seen,
			LastSeen:      seen.Add(time.Hour),
			TotalSessions: 3,
			TotalPlaytime: 90 * time.Minute,
			TotalMessages: 12,
			TotalDeaths:   2,
			DeviceClasses: []string{"Android", "Xbox"},
		},
		{XUID: "x2", Gamertag: "Alex", FirstSeen: seen, LastSeen: seen, TotalSessions: 1},
	}

	if err := store.SaveHistory(ctx, "guild-1", records); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	key := makeKey("guild-1")
	if !mr.Exists(key) {
		t.Fatalf("expected key %s to exist", key)
	}
	if ttl := mr.TTL(key); ttl != DefaultTTL {
		t.Errorf("TTL = %v, expected %v", ttl, DefaultTTL)
	}

	loaded, err := store.LoadHistory(ctx, "guild-1")
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadHistory() returned %d records, expected 2", len(loaded))
	}

	byXUID := make(map[string]PlayerHistoryRecord)
	for _, r := range loaded {
		byXUID[r.XUID] = r
	}
	steve := byXUID["x1"]
	if steve.TotalSessions != 3 || steve.TotalPlaytime != 90*time.Minute {
		t.Errorf("unexpected record: %+v", steve)
	}
	if !steve.LastSeen.Equal(seen.Add(time.Hour)) {
		t.Errorf("LastSeen = %v, expected %v", steve.LastSeen, seen.Add(time.Hour))
	}
	if !steve.HasDevice("Xbox") || !steve.HasDevice("Android") {
		t.Errorf("device classes lost: %v", steve.DeviceClasses)
	}
}

func TestRedisHistoryStore_SaveReplaces(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisHistoryStore(client, time.Hour)

	_ = store.SaveHistory(ctx, "g", []PlayerHistoryRecord{{XUID: "a"}, {XUID: "b"}})
	if err := store.SaveHistory(ctx, "g", []PlayerHistoryRecord{{XUID: "c"}}); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	loaded, _ := store.LoadHistory(ctx, "g")
	if len(loaded) != 1 || loaded[0].XUID != "c" {
		t.Errorf("expected only record c after replace, got %+v", loaded)
	}
	if ttl := mr.TTL(makeKey("g")); ttl != time.Hour {
		t.Errorf("TTL = %v, expected 1h", ttl)
	}
}

func TestRedisHistoryStore_SkipsCorruptEntries(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	mr.HSet(makeKey("g"), "bad", "{not json")
	mr.HSet(makeKey("g"), "good", `{"gamertag":"Steve","totalSessions":2}`)

	loaded, err := NewRedisHistoryStore(client, 0).LoadHistory(context.Background(), "g")
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 readable record, got %d", len(loaded))
	}
	if loaded[0].XUID != "good" {
		t.Errorf("XUID = %s, expected key fallback 'good'", loaded[0].XUID)
	}
}

func TestRedisHistoryStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewRedisHistoryStore(client, 0)
	_ = store.SaveHistory(ctx, "g", []PlayerHistoryRecord{{XUID: "a"}})

	if err := store.DeleteHistory(ctx, "g"); err != nil {
		t.Fatalf("DeleteHistory() error = %v", err)
	}
	if mr.Exists(makeKey("g")) {
		t.Error("expected key to be deleted")
	}
}

func TestHealthChecker(t *testing.T) {
	client, mr := setupTestRedis(t)

	checker := NewHealthChecker(client)
	if !checker.IsHealthy(context.Background()) {
		t.Error("expected healthy Redis")
	}

	mr.Close()
	if checker.IsHealthy(context.Background()) {
		t.Error("expected unhealthy Redis after close")
	}
}
