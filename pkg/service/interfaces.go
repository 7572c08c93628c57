package service

import (
	"context"
)

// Capability interfaces for the external systems the guard acts through.
// Implementations may block; callers run them off the tenant goroutine.
//
// You may not need to have interface and go with direct struct usage,
// but having interfaces allows easier mocking for unit tests.

type ProfileFetcher interface {
	// FetchProfile looks up a player's remote profile. Errors wrap
	// ErrProfileUnavailable.
	FetchProfile(ctx context.Context, tenant, xuid string) (*Profile, error)
}

type BanApplier interface {
	// ApplyBan bans xuid from the tenant's realm. One attempt, no retry.
	ApplyBan(ctx context.Context, tenant string, realm Realm, xuid, reason string) error
}

type CommandSender interface {
	// SendCommand issues a command through the tenant's game connection.
	SendCommand(ctx context.Context, tenant, command string) error
}

type StatIncrementer interface {
	// IncrementStat adds one to a user statistic.
	IncrementStat(ctx context.Context, userID, statCode string) error
}
