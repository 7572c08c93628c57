// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/jonboulle/clockwork"
)

func facts(xuid, gamertag string, platform int) signal.PlayerFacts {
	return signal.PlayerFacts{
		XUID:     xuid,
		Gamertag: gamertag,
		Device:   signal.DeviceInfo{Platform: platform},
	}
}

func TestTracker_JoinLeave(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTracker(clock, 10)

	session := tr.OnJoin(facts("x1", "Steve", signal.PlatformXbox))
	if !session.IsFirstJoin {
		t.Error("first join should set IsFirstJoin")
	}
	if session.DeviceClass != "Xbox" {
		t.Errorf("DeviceClass = %s, expected Xbox", session.DeviceClass)
	}

	clock.Advance(10 * time.Minute)
	if !tr.RecordMessage("steve") {
		t.Error("RecordMessage should match display name case-insensitively")
	}
	tr.RecordMessage("Steve")
	tr.RecordDeath("Steve")

	summary, ok := tr.OnLeave("x1")
	if !ok {
		t.Fatal("OnLeave() returned false for online player")
	}
	if summary.Duration != 10*time.Minute {
		t.Errorf("Duration = %v, expected 10m", summary.Duration)
	}
	if summary.Messages != 2 || summary.Deaths != 1 {
		t.Errorf("unexpected summary counts: %+v", summary)
	}
	if tr.IsOnline("x1") {
		t.Error("player should be offline after leave")
	}

	record, ok := tr.History("x1")
	if !ok {
		t.Fatal("expected history record")
	}
	if record.TotalSessions != 1 || record.TotalPlaytime != 10*time.Minute {
		t.Errorf("unexpected history: %+v", record)
	}
	if record.TotalMessages != 2 || record.TotalDeaths != 1 {
		t.Errorf("unexpected history totals: %+v", record)
	}

	clock.Advance(time.Hour)
	session = tr.OnJoin(facts("x1", "Steve", signal.PlatformAndroid))
	if session.IsFirstJoin {
		t.Error("returning player should not be a first join")
	}
	record, _ = tr.History("x1")
	if record.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, expected 2", record.TotalSessions)
	}
	if !record.HasDevice("Xbox") || !record.HasDevice("Android") {
		t.Errorf("DeviceClasses = %v, expected Xbox and Android", record.DeviceClasses)
	}
}

func TestTracker_LeaveUnknown(t *testing.T) {
	tr := NewTracker(clockwork.NewFakeClock(), 10)
	if _, ok := tr.OnLeave("nobody"); ok {
		t.Error("OnLeave() should return false for unknown player")
	}
	if tr.RecordMessage("nobody") || tr.RecordDeath("nobody") {
		t.Error("record calls should be no-ops for unknown names")
	}
}

func TestTracker_DuplicateJoinClosesPrevious(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTracker(clock, 10)

	tr.OnJoin(facts("x1", "Steve", signal.PlatformXbox))
	tr.RecordMessage("Steve")
	clock.Advance(time.Minute)
	tr.OnJoin(facts("x1", "Steve", signal.PlatformXbox))

	record, _ := tr.History("x1")
	if record.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, expected 2", record.TotalSessions)
	}
	if record.TotalMessages != 1 {
		t.Errorf("TotalMessages = %d, expected 1 folded from first session", record.TotalMessages)
	}
	if len(tr.Online()) != 1 {
		t.Errorf("expected one live session, got %d", len(tr.Online()))
	}
}

func TestTracker_HistoryCapEvictsOldest(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTracker(clock, 3)

	for i := 0; i < 3; i++ {
		xuid := fmt.Sprintf("x%d", i)
		tr.OnJoin(facts(xuid, xuid, signal.PlatformAndroid))
		tr.OnLeave(xuid)
		clock.Advance(time.Minute)
	}

	tr.OnJoin(facts("new", "new", signal.PlatformAndroid))

	if tr.HistoryLen() != 3 {
		t.Errorf("HistoryLen() = %d, expected 3", tr.HistoryLen())
	}
	if _, ok := tr.History("x0"); ok {
		t.Error("oldest record x0 should have been evicted")
	}
	if _, ok := tr.History("new"); !ok {
		t.Error("just-touched record must never be evicted")
	}
}

func TestTracker_HistoryCapNeverEvictsTouched(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTracker(clock, 1)

	tr.OnJoin(facts("a", "a", signal.PlatformAndroid))
	clock.Advance(time.Minute)
	tr.OnJoin(facts("b", "b", signal.PlatformAndroid))

	if tr.HistoryLen() != 1 {
		t.Fatalf("HistoryLen() = %d, expected 1", tr.HistoryLen())
	}
	if _, ok := tr.History("b"); !ok {
		t.Error("record for the joining player must survive eviction")
	}

	// a was evicted while still online; leaving recreates its record.
	clock.Advance(time.Minute)
	summary, ok := tr.OnLeave("a")
	if !ok || summary.Duration != 2*time.Minute {
		t.Errorf("unexpected leave summary: %+v", summary)
	}
	if _, ok := tr.History("a"); !ok {
		t.Error("leaving player's record must survive eviction")
	}
	if tr.HistoryLen() != 1 {
		t.Errorf("HistoryLen() = %d, expected 1", tr.HistoryLen())
	}
}

func TestTracker_Prune(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tr := NewTracker(clock, 10)

	tr.OnJoin(facts("old", "old", signal.PlatformAndroid))
	tr.OnLeave("old")
	tr.OnJoin(facts("online", "online", signal.PlatformAndroid))

	clock.Advance(48 * time.Hour)
	tr.OnJoin(facts("recent", "recent", signal.PlatformAndroid))
	tr.OnLeave("recent")

	if removed := tr.Prune(24 * time.Hour); removed != 1 {
		t.Errorf("Prune() removed %d, expected 1", removed)
	}
	if _, ok := tr.History("old"); ok {
		t.Error("stale offline record should be pruned")
	}
	if _, ok := tr.History("online"); !ok {
		t.Error("online player's record must not be pruned")
	}
}

func TestTracker_SnapshotRestore(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := NewTracker(clock, 10)
	src.OnJoin(facts("x1", "Steve", signal.PlatformXbox))
	src.OnLeave("x1")
	src.OnJoin(facts("x2", "Alex", signal.PlatformIOS))
	src.OnLeave("x2")

	snapshot := src.Snapshot()
	if len(snapshot) != 2 || snapshot[0].XUID != "x1" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	dst := NewTracker(clock, 10)
	if restored := dst.Restore(snapshot); restored != 2 {
		t.Errorf("Restore() = %d, expected 2", restored)
	}
	session := dst.OnJoin(facts("x1", "Steve", signal.PlatformXbox))
	if session.IsFirstJoin {
		t.Error("restored player should not be a first join")
	}
}

func TestTracker_RestoreHonorsCap(t *testing.T) {
	clock := clockwork.NewFakeClock()
	base := clock.Now()
	records := []PlayerHistoryRecord{
		{XUID: "a", LastSeen: base.Add(-3 * time.Hour)},
		{XUID: "b", LastSeen: base.Add(-2 * time.Hour)},
		{XUID: "c", LastSeen: base.Add(-1 * time.Hour)},
	}

	tr := NewTracker(clock, 2)
	tr.Restore(records)

	if tr.HistoryLen() != 2 {
		t.Fatalf("HistoryLen() = %d, expected 2", tr.HistoryLen())
	}
	if _, ok := tr.History("a"); ok {
		t.Error("oldest restored record should be evicted")
	}
}

func TestTracker_XUIDByName(t *testing.T) {
	tr := NewTracker(clockwork.NewFakeClock(), 10)
	tr.OnJoin(facts("x1", "Steve", signal.PlatformXbox))

	if xuid, ok := tr.XUIDByName(" STEVE "); !ok || xuid != "x1" {
		t.Errorf("XUIDByName() = %s, %v", xuid, ok)
	}
	tr.OnLeave("x1")
	if _, ok := tr.XUIDByName("Steve"); ok {
		t.Error("name mapping should be removed on leave")
	}
}
