package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/AccelByte/extend-realm-guard/pkg/common"
	"gopkg.in/yaml.v3"
)

// Config is the detector and enforcement catalogue read from pipeline.yaml.
// Which of them a tenant actually runs is decided by its automod settings.
type Config struct {
	Rules   []RuleConfig   `yaml:"rules"`
	Actions []ActionConfig `yaml:"actions"`
}

// Entry is one detector or enforcement action in pipeline.yaml.
type Entry struct {
	ID         string                 `yaml:"id"`
	Name       string                 `yaml:"name,omitempty"`
	Type       string                 `yaml:"type"`
	Enabled    bool                   `yaml:"enabled"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty"`
}

// RuleConfig configures a detector.
type RuleConfig = Entry

// ActionConfig configures an enforcement action.
type ActionConfig = Entry

// LoadConfig reads and validates the pipeline file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a pipeline document after expanding ${VAR} and
// ${VAR:default} references.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(common.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate reports every missing ID, missing type and duplicate ID in the
// document.
func (c *Config) Validate() error {
	return errors.Join(
		validateEntries("rule", c.Rules),
		validateEntries("action", c.Actions),
	)
}

func validateEntries(kind string, entries []Entry) error {
	var errs []error
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		switch {
		case e.ID == "":
			errs = append(errs, fmt.Errorf("%s #%d has an empty ID", kind, i+1))
		case seen[e.ID]:
			errs = append(errs, fmt.Errorf("duplicate %s ID: %s", kind, e.ID))
		}
		seen[e.ID] = true

		if e.Type == "" {
			errs = append(errs, fmt.Errorf("%s %q has an empty type", kind, e.ID))
		}
	}
	return errors.Join(errs...)
}
