// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"sort"
	"time"
)

// PlayerSession is one online period of a player.
type PlayerSession struct {
	XUID         string    `json:"xuid"`
	Gamertag     string    `json:"gamertag"`
	DeviceClass  string    `json:"deviceClass"`
	JoinedAt     time.Time `json:"joinedAt"`
	MessageCount int       `json:"messageCount"`
	DeathCount   int       `json:"deathCount"`
	IsFirstJoin  bool      `json:"isFirstJoin"`
}

// PlayerHistoryRecord is the durable per-tenant ledger entry for a player.
type PlayerHistoryRecord struct {
	XUID          string        `json:"xuid"`
	Gamertag      string        `json:"gamertag"`
	FirstSeen     time.Time     `json:"firstSeen"`
	LastSeen      time.Time     `json:"lastSeen"`
	TotalSessions int           `json:"totalSessions"`
	TotalPlaytime time.Duration `json:"totalPlaytime"`
	TotalMessages int           `json:"totalMessages"`
	TotalDeaths   int           `json:"totalDeaths"`
	DeviceClasses []string      `json:"deviceClasses"`
}

// addDevice records a device class, keeping the list sorted and unique.
func (r *PlayerHistoryRecord) addDevice(class string) {
	if class == "" {
		return
	}
	i := sort.SearchStrings(r.DeviceClasses, class)
	if i < len(r.DeviceClasses) && r.DeviceClasses[i] == class {
		return
	}
	r.DeviceClasses = append(r.DeviceClasses, "")
	copy(r.DeviceClasses[i+1:], r.DeviceClasses[i:])
	r.DeviceClasses[i] = class
}

// HasDevice reports whether the player was ever seen on the device class.
func (r *PlayerHistoryRecord) HasDevice(class string) bool {
	i := sort.SearchStrings(r.DeviceClasses, class)
	return i < len(r.DeviceClasses) && r.DeviceClasses[i] == class
}

// LeaveSummary reports one finished online period.
type LeaveSummary struct {
	XUID     string        `json:"xuid"`
	Gamertag string        `json:"gamertag"`
	JoinedAt time.Time     `json:"joinedAt"`
	Duration time.Duration `json:"duration"`
	Messages int           `json:"messages"`
	Deaths   int           `json:"deaths"`
}
