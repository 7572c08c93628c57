// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// ============================================================
// DEVELOPER: Add new configuration fields here.
// ============================================================
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `env:",required"` - make it required
// - `envDefault:"value"` - set a default value
//
// After adding fields here, update loader.go Validate() if custom
// validation is needed.
// ============================================================
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"ExtendRealmGuard"`

	// ============================================================
	// Logging configuration
	// ============================================================
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`

	// ============================================================
	// AccelByte configuration
	// ============================================================
	// Without AB_CLIENT_ID the enforcement statistic sink is disabled.
	ABNamespace    string `env:"AB_NAMESPACE" envDefault:"accelbyte"`
	ABBaseURL      string `env:"AB_BASE_URL"`
	ABClientID     string `env:"AB_CLIENT_ID"`
	ABClientSecret string `env:"AB_CLIENT_SECRET"`
	BanStatCode    string `env:"BAN_STAT_CODE"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost         string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int           `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`
	HistoryTTL        time.Duration `env:"HISTORY_TTL" envDefault:"720h"`

	// ============================================================
	// NATS configuration
	// ============================================================
	NATSURL           string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"realm_guard"`

	// ============================================================
	// Pipeline and tenant settings
	// ============================================================
	ConfigPath   string `env:"CONFIG_PATH" envDefault:"config/pipeline.yaml"`
	SettingsPath string `env:"SETTINGS_PATH" envDefault:"config/settings.yaml"`

	// ============================================================
	// Session lifecycle
	// ============================================================
	ModeReassertInterval time.Duration `env:"MODE_REASSERT_INTERVAL" envDefault:"30s"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SweepMaxAge          time.Duration `env:"SWEEP_MAX_AGE" envDefault:"30m"`
	HistoryMaxAge        time.Duration `env:"HISTORY_MAX_AGE" envDefault:"0s"`
	MaxHistoryEntries    int           `env:"MAX_HISTORY_ENTRIES" envDefault:"1000"`
	SessionInboxSize     int           `env:"SESSION_INBOX_SIZE" envDefault:"256"`
	DispatchTimeout      time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"250ms"`
	EventBusSize         int           `env:"EVENT_BUS_SIZE" envDefault:"1024"`
	CrashAction          string        `env:"CRASH_ACTION" envDefault:"ban"`

	// ============================================================
	// External capabilities
	// ============================================================
	ProfileAPIURL       string        `env:"PROFILE_API_URL"`
	ProfileRatePerSec   float64       `env:"PROFILE_RATE_PER_SECOND" envDefault:"10"`
	ProfileBurst        int           `env:"PROFILE_BURST" envDefault:"5"`
	BanAPIURL           string        `env:"BAN_API_URL"`
	ExternalCallTimeout time.Duration `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"5s"`
	EnforcementTimeout  time.Duration `env:"ENFORCEMENT_TIMEOUT" envDefault:"10s"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled bool `env:"OTEL_ENABLED" envDefault:"true"`
}
