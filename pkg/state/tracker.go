// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"sort"
	"strings"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// DefaultMaxHistoryEntries caps the history ledger when no limit is configured.
const DefaultMaxHistoryEntries = 1000

// Tracker holds one tenant's online players and history ledger.
// It is not safe for concurrent use; the tenant's session goroutine owns it.
type Tracker struct {
	clock      clockwork.Clock
	maxHistory int

	online  map[string]*PlayerSession
	byName  map[string]string
	history map[string]*PlayerHistoryRecord
}

// NewTracker creates an empty tracker. maxHistory <= 0 uses DefaultMaxHistoryEntries.
func NewTracker(clock clockwork.Clock, maxHistory int) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistoryEntries
	}
	return &Tracker{
		clock:      clock,
		maxHistory: maxHistory,
		online:     make(map[string]*PlayerSession),
		byName:     make(map[string]string),
		history:    make(map[string]*PlayerHistoryRecord),
	}
}

// OnJoin starts a session for the player and upserts the history record.
// A join for a player that is already online closes the previous session first.
func (t *Tracker) OnJoin(facts signal.PlayerFacts) *PlayerSession {
	if _, ok := t.online[facts.XUID]; ok {
		t.OnLeave(facts.XUID)
	}

	now := t.clock.Now()
	device := facts.DeviceClass()

	record, seen := t.history[facts.XUID]
	if !seen {
		record = &PlayerHistoryRecord{
			XUID:      facts.XUID,
			FirstSeen: now,
		}
		t.history[facts.XUID] = record
	}
	record.Gamertag = facts.Gamertag
	record.LastSeen = now
	record.TotalSessions++
	record.addDevice(device)

	session := &PlayerSession{
		XUID:        facts.XUID,
		Gamertag:    facts.Gamertag,
		DeviceClass: device,
		JoinedAt:    now,
		IsFirstJoin: !seen,
	}
	t.online[facts.XUID] = session
	if facts.Gamertag != "" {
		t.byName[nameKey(facts.Gamertag)] = facts.XUID
	}

	t.evict(facts.XUID)

	copied := *session
	return &copied
}

// OnLeave folds the live session into history and removes it.
// It returns false when the player was not online.
func (t *Tracker) OnLeave(xuid string) (*LeaveSummary, bool) {
	session, ok := t.online[xuid]
	if !ok {
		return nil, false
	}

	now := t.clock.Now()
	duration := now.Sub(session.JoinedAt)
	if duration < 0 {
		duration = 0
	}

	record, exists := t.history[xuid]
	if !exists {
		// The record was evicted while the player was online.
		record = &PlayerHistoryRecord{
			XUID:          xuid,
			FirstSeen:     session.JoinedAt,
			TotalSessions: 1,
		}
		t.history[xuid] = record
	}
	record.Gamertag = session.Gamertag
	record.LastSeen = now
	record.TotalPlaytime += duration
	record.TotalMessages += session.MessageCount
	record.TotalDeaths += session.DeathCount
	record.addDevice(session.DeviceClass)

	delete(t.online, xuid)
	if t.byName[nameKey(session.Gamertag)] == xuid {
		delete(t.byName, nameKey(session.Gamertag))
	}

	t.evict(xuid)

	return &LeaveSummary{
		XUID:     xuid,
		Gamertag: session.Gamertag,
		JoinedAt: session.JoinedAt,
		Duration: duration,
		Messages: session.MessageCount,
		Deaths:   session.DeathCount,
	}, true
}

// RecordMessage counts a chat message for the online player with the given
// display name. It is a no-op when nobody online has that name.
func (t *Tracker) RecordMessage(name string) bool {
	session := t.sessionByName(name)
	if session == nil {
		return false
	}
	session.MessageCount++
	return true
}

// RecordDeath counts a death for the online player with the given display name.
func (t *Tracker) RecordDeath(name string) bool {
	session := t.sessionByName(name)
	if session == nil {
		return false
	}
	session.DeathCount++
	return true
}

// XUIDByName resolves an online player's xuid from a display name.
func (t *Tracker) XUIDByName(name string) (string, bool) {
	xuid, ok := t.byName[nameKey(name)]
	return xuid, ok
}

// Session returns a copy of the live session for xuid.
func (t *Tracker) Session(xuid string) (PlayerSession, bool) {
	session, ok := t.online[xuid]
	if !ok {
		return PlayerSession{}, false
	}
	return *session, true
}

// IsOnline reports whether xuid has a live session.
func (t *Tracker) IsOnline(xuid string) bool {
	_, ok := t.online[xuid]
	return ok
}

// Online returns copies of all live sessions ordered by join time.
func (t *Tracker) Online() []PlayerSession {
	sessions := make([]PlayerSession, 0, len(t.online))
	for _, s := range t.online {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].JoinedAt.Equal(sessions[j].JoinedAt) {
			return sessions[i].XUID < sessions[j].XUID
		}
		return sessions[i].JoinedAt.Before(sessions[j].JoinedAt)
	})
	return sessions
}

// History returns a copy of the history record for xuid.
func (t *Tracker) History(xuid string) (PlayerHistoryRecord, bool) {
	record, ok := t.history[xuid]
	if !ok {
		return PlayerHistoryRecord{}, false
	}
	return copyRecord(record), true
}

// HistoryLen returns the number of history records.
func (t *Tracker) HistoryLen() int {
	return len(t.history)
}

// Prune drops history of offline players not seen within maxAge.
func (t *Tracker) Prune(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	now := t.clock.Now()
	removed := 0
	for xuid, record := range t.history {
		if _, online := t.online[xuid]; online {
			continue
		}
		if now.Sub(record.LastSeen) > maxAge {
			delete(t.history, xuid)
			removed++
		}
	}
	return removed
}

// Snapshot returns copies of all history records ordered by xuid.
func (t *Tracker) Snapshot() []PlayerHistoryRecord {
	records := make([]PlayerHistoryRecord, 0, len(t.history))
	for _, r := range t.history {
		records = append(records, copyRecord(r))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].XUID < records[j].XUID
	})
	return records
}

// Restore loads persisted history records. Records for players already
// tracked are kept as they are. The cap is enforced afterwards.
func (t *Tracker) Restore(records []PlayerHistoryRecord) int {
	restored := 0
	for i := range records {
		r := copyRecord(&records[i])
		if r.XUID == "" {
			continue
		}
		if _, exists := t.history[r.XUID]; exists {
			continue
		}
		sort.Strings(r.DeviceClasses)
		t.history[r.XUID] = &r
		restored++
	}
	t.evict("")
	return restored
}

// evict removes least-recently-seen records until the ledger is at the
// cap. The record for keep is never evicted.
func (t *Tracker) evict(keep string) {
	over := len(t.history) - t.maxHistory
	if over <= 0 {
		return
	}

	candidates := make([]*PlayerHistoryRecord, 0, len(t.history))
	for xuid, r := range t.history {
		if xuid == keep {
			continue
		}
		candidates = append(candidates, r)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].LastSeen.Equal(candidates[j].LastSeen) {
			return candidates[i].XUID < candidates[j].XUID
		}
		return candidates[i].LastSeen.Before(candidates[j].LastSeen)
	})

	for i := 0; i < over && i < len(candidates); i++ {
		delete(t.history, candidates[i].XUID)
		logrus.Debugf("evicted history record %s (last seen %v)", candidates[i].XUID, candidates[i].LastSeen)
	}
}

func (t *Tracker) sessionByName(name string) *PlayerSession {
	xuid, ok := t.byName[nameKey(name)]
	if !ok {
		return nil
	}
	return t.online[xuid]
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func copyRecord(r *PlayerHistoryRecord) PlayerHistoryRecord {
	c := *r
	c.DeviceClasses = append([]string(nil), r.DeviceClasses...)
	return c
}
