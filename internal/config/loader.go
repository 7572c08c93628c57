// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
//
// ============================================================
// DEVELOPER: Add custom validation logic here.
// ============================================================
// This function is called after environment variables are parsed.
// All problems are reported together.
// ============================================================
func (c *Config) Validate() error {
	var errs []error

	// Validate server ports
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid GRPC_PORT: %d (must be 1-65535)", c.GRPCPort))
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort))
	}

	// Validate session lifecycle
	if c.ModeReassertInterval <= 0 {
		errs = append(errs, fmt.Errorf("MODE_REASSERT_INTERVAL must be positive, got %v", c.ModeReassertInterval))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("SWEEP_INTERVAL must be positive, got %v", c.SweepInterval))
	}
	if c.SweepMaxAge <= 0 {
		errs = append(errs, fmt.Errorf("SWEEP_MAX_AGE must be positive, got %v", c.SweepMaxAge))
	}
	if c.HistoryMaxAge < 0 {
		errs = append(errs, fmt.Errorf("HISTORY_MAX_AGE must not be negative, got %v", c.HistoryMaxAge))
	}
	if c.MaxHistoryEntries < 1 {
		errs = append(errs, fmt.Errorf("MAX_HISTORY_ENTRIES must be at least 1, got %d", c.MaxHistoryEntries))
	}
	if c.CrashAction == "" {
		errs = append(errs, fmt.Errorf("CRASH_ACTION must not be empty"))
	}

	// AccelByte credentials come as a pair
	if (c.ABClientID == "") != (c.ABClientSecret == "") {
		errs = append(errs, fmt.Errorf("AB_CLIENT_ID and AB_CLIENT_SECRET must be set together"))
	}
	if c.ABClientID != "" && c.ABBaseURL == "" {
		errs = append(errs, fmt.Errorf("AB_BASE_URL is required when AB_CLIENT_ID is set"))
	}

	// ============================================================
	// DEVELOPER: Add your custom validation below
	// ============================================================

	return errors.Join(errs...)
}

// AccelByteEnabled reports whether AccelByte credentials are configured.
func (c *Config) AccelByteEnabled() bool {
	return c.ABClientID != ""
}
