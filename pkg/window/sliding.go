// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package window

import (
	"time"
)

// Entry is a single value recorded in a sliding window.
type Entry[T any] struct {
	Value     T
	Timestamp time.Time
}

// Sliding is a time-bounded, ordered sequence of entries.
// Every read discards entries older than the window before returning,
// so a window never grows past what was recorded within its duration.
//
// Sliding is not safe for concurrent use. It is owned by a single
// tenant dispatch loop.
type Sliding[T any] struct {
	duration time.Duration
	entries  []Entry[T]
}

// NewSliding creates a sliding window covering the given duration.
func NewSliding[T any](duration time.Duration) *Sliding[T] {
	return &Sliding[T]{
		duration: duration,
	}
}

// Duration returns the window length.
func (w *Sliding[T]) Duration() time.Duration {
	return w.duration
}

// SetDuration changes the window length. The next read applies it.
func (w *Sliding[T]) SetDuration(d time.Duration) {
	w.duration = d
}

// Add records a value at the given time and returns the number of
// entries inside the window after insertion.
func (w *Sliding[T]) Add(value T, at time.Time) int {
	w.prune(at)
	w.entries = append(w.entries, Entry[T]{Value: value, Timestamp: at})
	return len(w.entries)
}

// Entries returns a copy of the entries still inside the window at now.
func (w *Sliding[T]) Entries(now time.Time) []Entry[T] {
	w.prune(now)
	out := make([]Entry[T], len(w.entries))
	copy(out, w.entries)
	return out
}

// Count returns the number of entries still inside the window at now.
func (w *Sliding[T]) Count(now time.Time) int {
	w.prune(now)
	return len(w.entries)
}

// Last returns the most recent entry, if any.
func (w *Sliding[T]) Last() (Entry[T], bool) {
	if len(w.entries) == 0 {
		var zero Entry[T]
		return zero, false
	}
	return w.entries[len(w.entries)-1], true
}

// Empty reports whether no entries remain at now.
func (w *Sliding[T]) Empty(now time.Time) bool {
	return w.Count(now) == 0
}

// prune drops every entry older than the window relative to now.
// Entries are appended in time order, so the cut point is found by a
// forward scan from the oldest entry.
func (w *Sliding[T]) prune(now time.Time) {
	cut := 0
	for cut < len(w.entries) && now.Sub(w.entries[cut].Timestamp) > w.duration {
		cut++
	}
	if cut == 0 {
		return
	}
	remaining := copy(w.entries, w.entries[cut:])
	var zero Entry[T]
	for i := remaining; i < len(w.entries); i++ {
		w.entries[i] = zero
	}
	w.entries = w.entries[:remaining]
}
