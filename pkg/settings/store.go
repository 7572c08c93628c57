// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AccelByte/extend-realm-guard/pkg/common"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk layout of the tenant settings file.
//
//	defaults:
//	  checks:
//	    chat_flood: {max_messages: 8}
//	tenants:
//	  "123456789":
//	    automod: {enabled: false}
type fileConfig struct {
	Defaults yaml.Node            `yaml:"defaults"`
	Tenants  map[string]yaml.Node `yaml:"tenants"`
}

// Store is a file-backed Provider. It is safe for concurrent use; readers
// get the snapshot loaded most recently.
type Store struct {
	path string

	mu       sync.RWMutex
	defaults *TenantSettings
	tenants  map[string]*TenantSettings
}

// NewStore creates a store holding only the built-in defaults.
// Call Load to read the settings file.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		defaults: Default(),
		tenants:  make(map[string]*TenantSettings),
	}
}

// Get implements Provider.
func (s *Store) Get(tenant string) *TenantSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tenants[tenant]; ok {
		return t
	}
	return s.defaults
}

// Tenants returns the tenant IDs that have explicit overrides.
func (s *Store) Tenants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.tenants))
	for id := range s.tenants {
		ids = append(ids, id)
	}
	return ids
}

// Load reads and validates the settings file, replacing the current
// snapshot only when the whole file is valid. A missing file leaves the
// built-in defaults in place.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Warnf("settings file %s not found, using built-in defaults", s.path)
			return nil
		}
		return fmt.Errorf("failed to read settings file %s: %w", s.path, err)
	}

	defaults, tenants, err := Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.defaults = defaults
	s.tenants = tenants
	s.mu.Unlock()

	logrus.Infof("loaded settings from %s (%d tenant overrides)", s.path, len(tenants))
	return nil
}

// Parse decodes a settings document. Environment variables in the form
// ${VAR} or ${VAR:default} are expanded before parsing.
func Parse(data []byte) (*TenantSettings, map[string]*TenantSettings, error) {
	expanded := common.ExpandEnv(string(data))

	var doc fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML settings: %w", err)
	}

	defaults := Default()
	if !doc.Defaults.IsZero() {
		if err := doc.Defaults.Decode(defaults); err != nil {
			return nil, nil, fmt.Errorf("invalid defaults: %w", err)
		}
	}
	if err := defaults.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid defaults: %w", err)
	}

	tenants := make(map[string]*TenantSettings, len(doc.Tenants))
	for id, node := range doc.Tenants {
		if id == "" {
			return nil, nil, fmt.Errorf("tenant with empty ID found")
		}
		t := defaults.Clone()
		if err := node.Decode(t); err != nil {
			return nil, nil, fmt.Errorf("invalid settings for tenant %s: %w", id, err)
		}
		if err := t.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid settings for tenant %s: %w", id, err)
		}
		tenants[id] = t
	}

	return defaults, tenants, nil
}

// Validate checks numeric parameters for values the detectors cannot use.
func (s *TenantSettings) Validate() error {
	cf := s.Checks.ChatFlood
	if cf.MaxMessages < 1 {
		return fmt.Errorf("checks.chat_flood.max_messages must be positive, got %d", cf.MaxMessages)
	}
	if cf.TimeWindowSeconds < 1 {
		return fmt.Errorf("checks.chat_flood.time_window_seconds must be positive, got %d", cf.TimeWindowSeconds)
	}
	if cf.DuplicateThreshold < 2 {
		return fmt.Errorf("checks.chat_flood.duplicate_threshold must be at least 2, got %d", cf.DuplicateThreshold)
	}

	cs := s.Checks.CommandSpam
	if cs.MaxCommands < 1 {
		return fmt.Errorf("checks.command_spam.max_commands must be positive, got %d", cs.MaxCommands)
	}
	if cs.TimeWindowSeconds < 1 {
		return fmt.Errorf("checks.command_spam.time_window_seconds must be positive, got %d", cs.TimeWindowSeconds)
	}

	ip := s.Checks.InvalidPacket
	if ip.AnomalyThreshold < 1 || ip.AnomalyWindowSeconds < 1 {
		return fmt.Errorf("checks.invalid_packet anomaly threshold and window must be positive")
	}

	for packetType, budget := range s.Checks.PacketRate.Budgets {
		if budget < 1 {
			return fmt.Errorf("checks.packet_rate.budgets.%s must be positive, got %d", packetType, budget)
		}
	}

	if s.Automod.Action == "" {
		return fmt.Errorf("automod.action must not be empty")
	}

	return nil
}

// Serve watches the settings file and reloads it on change until ctx is
// cancelled. Invalid edits are logged and the previous snapshot is kept.
// Serve satisfies suture.Service.
func (s *Store) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and config-map mounts replace the file
	// rather than writing it in place.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logrus.Infof("watching settings file %s for changes", s.path)

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("settings watcher closed")
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Load(); err != nil {
				logrus.Errorf("settings reload failed, keeping previous settings: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("settings watcher closed")
			}
			logrus.Warnf("settings watcher error: %v", err)
		}
	}
}
