// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package window

import (
	"time"
)

// Key identifies one window inside a tenant: a player and a category
// such as "chat" or "command". The tenant dimension is implied by which
// tenant owns the Tracker.
type Key struct {
	Player   string
	Category string
}

// Tracker holds one Sliding window per Key, created lazily.
type Tracker[T any] struct {
	duration time.Duration
	windows  map[Key]*Sliding[T]
}

// NewTracker creates a tracker whose windows cover the given duration.
func NewTracker[T any](duration time.Duration) *Tracker[T] {
	return &Tracker[T]{
		duration: duration,
		windows:  make(map[Key]*Sliding[T]),
	}
}

// Window returns the window for key, creating it when absent.
// A non-zero duration overrides the tracker default for this window,
// which lets tenant settings change the window length at runtime.
func (t *Tracker[T]) Window(key Key, duration time.Duration) *Sliding[T] {
	if duration <= 0 {
		duration = t.duration
	}
	w, ok := t.windows[key]
	if !ok {
		w = NewSliding[T](duration)
		t.windows[key] = w
		return w
	}
	if w.Duration() != duration {
		w.SetDuration(duration)
	}
	return w
}

// Add records a value for key and returns the updated count.
func (t *Tracker[T]) Add(key Key, value T, at time.Time) int {
	return t.Window(key, 0).Add(value, at)
}

// Count returns the live count for key without creating a window.
func (t *Tracker[T]) Count(key Key, now time.Time) int {
	w, ok := t.windows[key]
	if !ok {
		return 0
	}
	return w.Count(now)
}

// Len returns the number of tracked keys.
func (t *Tracker[T]) Len() int {
	return len(t.windows)
}

// RemovePlayer drops every window belonging to player.
func (t *Tracker[T]) RemovePlayer(player string) int {
	removed := 0
	for key := range t.windows {
		if key.Player == player {
			delete(t.windows, key)
			removed++
		}
	}
	return removed
}

// Sweep discards windows whose newest entry is older than maxAge and
// prunes the rest. It returns the number of windows removed.
func (t *Tracker[T]) Sweep(now time.Time, maxAge time.Duration) int {
	removed := 0
	for key, w := range t.windows {
		last, ok := w.Last()
		if !ok || now.Sub(last.Timestamp) > maxAge || w.Empty(now) {
			delete(t.windows, key)
			removed++
		}
	}
	return removed
}
