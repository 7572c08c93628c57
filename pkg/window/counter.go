// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package window

import (
	"time"
)

// Sample is the state of a fixed window counter after an increment.
type Sample struct {
	Count int
	// Consecutive is the number of back-to-back completed windows whose
	// count exceeded the budget, not including the current window.
	Consecutive int
	// Rolled is true when this increment opened a new window.
	Rolled bool
}

type fixedWindow struct {
	start       time.Time
	count       int
	consecutive int
	lastSeen    time.Time
}

// Counters keeps a fixed-interval counter per Key. A counter resets when
// an increment lands at or after start+interval. When a window closes its
// count is compared against the budget supplied on the closing increment
// to maintain the consecutive overrun streak.
type Counters struct {
	interval time.Duration
	windows  map[Key]*fixedWindow
}

// NewCounters creates counters that reset every interval.
func NewCounters(interval time.Duration) *Counters {
	return &Counters{
		interval: interval,
		windows:  make(map[Key]*fixedWindow),
	}
}

// Increment counts one event for key at the given time.
func (c *Counters) Increment(key Key, at time.Time, budget int) Sample {
	w, ok := c.windows[key]
	if !ok {
		w = &fixedWindow{start: at}
		c.windows[key] = w
	}

	rolled := false
	if at.Sub(w.start) >= c.interval {
		elapsed := at.Sub(w.start) / c.interval
		// Only the window that just closed can extend the streak; a gap of
		// more than one interval means an idle window sat in between.
		if elapsed == 1 && w.count > budget {
			w.consecutive++
		} else {
			w.consecutive = 0
		}
		w.start = w.start.Add(elapsed * c.interval)
		w.count = 0
		rolled = true
	}

	w.count++
	w.lastSeen = at

	return Sample{
		Count:       w.count,
		Consecutive: w.consecutive,
		Rolled:      rolled,
	}
}

// Len returns the number of tracked keys.
func (c *Counters) Len() int {
	return len(c.windows)
}

// RemovePlayer drops every counter belonging to player.
func (c *Counters) RemovePlayer(player string) int {
	removed := 0
	for key := range c.windows {
		if key.Player == player {
			delete(c.windows, key)
			removed++
		}
	}
	return removed
}

// Sweep drops counters not incremented within maxAge.
func (c *Counters) Sweep(now time.Time, maxAge time.Duration) int {
	removed := 0
	for key, w := range c.windows {
		if now.Sub(w.lastSeen) > maxAge {
			delete(c.windows, key)
			removed++
		}
	}
	return removed
}
