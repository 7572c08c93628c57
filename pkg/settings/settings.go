// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settings

import "time"

// TenantSettings is the read-only view of one tenant's feature toggles
// and thresholds. Values are loaded from YAML; any field a tenant does not
// override keeps the value from the file's defaults block, which in turn
// starts from Default().
type TenantSettings struct {
	Automod          AutomodSettings          `yaml:"automod" json:"automod"`
	CrashAttribution CrashAttributionSettings `yaml:"crash_attribution" json:"crash_attribution"`
	Session          SessionSettings          `yaml:"session" json:"session"`
	Checks           CheckSettings            `yaml:"checks" json:"checks"`
	ExemptXUIDs      []string                 `yaml:"exempt_xuids" json:"exempt_xuids"`
	// AccelByteUserID receives the enforcement statistic for this tenant.
	AccelByteUserID string `yaml:"accelbyte_user_id" json:"accelbyte_user_id"`
}

// AutomodSettings controls whether detections are enforced.
type AutomodSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Action is the action registry ID used for autoBan verdicts.
	Action string `yaml:"action" json:"action"`
}

// CrashAttributionSettings tunes the blame-last-joiner policy.
type CrashAttributionSettings struct {
	Enabled                     bool `yaml:"enabled" json:"enabled"`
	TreatUnexpectedCloseAsCrash bool `yaml:"treat_unexpected_close_as_crash" json:"treat_unexpected_close_as_crash"`
}

// SessionSettings configures the per-tenant connection behavior.
type SessionSettings struct {
	ModeCommand string `yaml:"mode_command" json:"mode_command"`
}

// CheckSettings groups per-detector settings.
type CheckSettings struct {
	Appearance    ToggleSettings        `yaml:"appearance" json:"appearance"`
	Device        ToggleSettings        `yaml:"device" json:"device"`
	Unicode       ToggleSettings        `yaml:"unicode" json:"unicode"`
	ChatFlood     ChatFloodSettings     `yaml:"chat_flood" json:"chat_flood"`
	CommandSpam   CommandSpamSettings   `yaml:"command_spam" json:"command_spam"`
	Advertising   AdvertisingSettings   `yaml:"advertising" json:"advertising"`
	InvalidPacket InvalidPacketSettings `yaml:"invalid_packet" json:"invalid_packet"`
	PacketRate    PacketRateSettings    `yaml:"packet_rate" json:"packet_rate"`
	Inventory     ToggleSettings        `yaml:"inventory" json:"inventory"`
	NewAccount    NewAccountSettings    `yaml:"new_account" json:"new_account"`
}

// ToggleSettings is used by detectors with no numeric parameters.
type ToggleSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// ChatFloodSettings configures the chat flood detector.
type ChatFloodSettings struct {
	Enabled            bool `yaml:"enabled" json:"enabled"`
	MaxMessages        int  `yaml:"max_messages" json:"max_messages"`
	TimeWindowSeconds  int  `yaml:"time_window_seconds" json:"time_window_seconds"`
	DuplicateThreshold int  `yaml:"duplicate_threshold" json:"duplicate_threshold"`
}

// Window returns the configured window as a duration.
func (c ChatFloodSettings) Window() time.Duration {
	return time.Duration(c.TimeWindowSeconds) * time.Second
}

// CommandSpamSettings configures the command spam detector.
type CommandSpamSettings struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	MaxCommands       int  `yaml:"max_commands" json:"max_commands"`
	TimeWindowSeconds int  `yaml:"time_window_seconds" json:"time_window_seconds"`
}

// Window returns the configured window as a duration.
func (c CommandSpamSettings) Window() time.Duration {
	return time.Duration(c.TimeWindowSeconds) * time.Second
}

// AdvertisingSettings configures the advertising detector.
type AdvertisingSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// AllowedDomains extends the built-in first-party allow-list.
	AllowedDomains []string `yaml:"allowed_domains" json:"allowed_domains"`
}

// InvalidPacketSettings configures the invalid packet detector.
type InvalidPacketSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// AnomalyThreshold is how many anomalies within AnomalyWindowSeconds
	// escalate to a HIGH repeated-anomaly flag.
	AnomalyThreshold     int `yaml:"anomaly_threshold" json:"anomaly_threshold"`
	AnomalyWindowSeconds int `yaml:"anomaly_window_seconds" json:"anomaly_window_seconds"`
}

// AnomalyWindow returns the anomaly window as a duration.
func (c InvalidPacketSettings) AnomalyWindow() time.Duration {
	return time.Duration(c.AnomalyWindowSeconds) * time.Second
}

// PacketRateSettings configures the packet rate detector.
type PacketRateSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Budgets overrides per-packet-type budgets per second.
	Budgets map[string]int `yaml:"budgets" json:"budgets"`
}

// NewAccountSettings configures the remote-profile detector.
type NewAccountSettings struct {
	Enabled       bool `yaml:"enabled" json:"enabled"`
	MinGamerscore int  `yaml:"min_gamerscore" json:"min_gamerscore"`
}

// Default returns the built-in settings applied before any file values.
func Default() *TenantSettings {
	return &TenantSettings{
		Automod: AutomodSettings{
			Enabled: true,
			Action:  "ban",
		},
		CrashAttribution: CrashAttributionSettings{
			Enabled:                     true,
			TreatUnexpectedCloseAsCrash: true,
		},
		Session: SessionSettings{
			ModeCommand: "/gamemode spectator @s",
		},
		Checks: CheckSettings{
			Appearance: ToggleSettings{Enabled: true},
			Device:     ToggleSettings{Enabled: true},
			Unicode:    ToggleSettings{Enabled: true},
			ChatFlood: ChatFloodSettings{
				Enabled:            true,
				MaxMessages:        5,
				TimeWindowSeconds:  10,
				DuplicateThreshold: 3,
			},
			CommandSpam: CommandSpamSettings{
				Enabled:           true,
				MaxCommands:       5,
				TimeWindowSeconds: 10,
			},
			Advertising: AdvertisingSettings{Enabled: true},
			InvalidPacket: InvalidPacketSettings{
				Enabled:              true,
				AnomalyThreshold:     5,
				AnomalyWindowSeconds: 10,
			},
			PacketRate: PacketRateSettings{Enabled: true},
			Inventory:  ToggleSettings{Enabled: true},
			NewAccount: NewAccountSettings{
				Enabled:       false,
				MinGamerscore: 100,
			},
		},
	}
}

// IsExempt reports whether xuid is listed as exempt from detection.
func (s *TenantSettings) IsExempt(xuid string) bool {
	if xuid == "" {
		return false
	}
	for _, x := range s.ExemptXUIDs {
		if x == xuid {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers may not mutate shared settings.
func (s *TenantSettings) Clone() *TenantSettings {
	c := *s
	c.ExemptXUIDs = append([]string(nil), s.ExemptXUIDs...)
	c.Checks.Advertising.AllowedDomains = append([]string(nil), s.Checks.Advertising.AllowedDomains...)
	if s.Checks.PacketRate.Budgets != nil {
		c.Checks.PacketRate.Budgets = make(map[string]int, len(s.Checks.PacketRate.Budgets))
		for k, v := range s.Checks.PacketRate.Budgets {
			c.Checks.PacketRate.Budgets[k] = v
		}
	}
	return &c
}

// Provider returns the settings for a tenant. Implementations must never
// return nil; unknown tenants get the defaults.
type Provider interface {
	Get(tenant string) *TenantSettings
}

// Static is a Provider that returns the same settings for every tenant.
type Static struct {
	Settings *TenantSettings
}

// Get implements Provider.
func (s Static) Get(tenant string) *TenantSettings {
	if s.Settings == nil {
		return Default()
	}
	return s.Settings
}
