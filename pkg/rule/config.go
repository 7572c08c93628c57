package rule

// RuleConfig is the base configuration for all rules.
// This is typically loaded from YAML configuration files. Thresholds that
// tenants tune live in tenant settings; Parameters hold the fixed
// constants of a rule such as caps and blacklists.
type RuleConfig struct {
	ID         string                 `yaml:"id" json:"id"`
	Name       string                 `yaml:"name" json:"name"`
	Type       string                 `yaml:"type" json:"type"` // e.g., "chat_flood"
	Enabled    bool                   `yaml:"enabled" json:"enabled"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"` // Rule-specific parameters
}

// GetInt retrieves an integer value from parameters with a default.
func (c *RuleConfig) GetInt(key string, defaultValue int) int {
	if val, ok := c.Parameters[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// GetFloat retrieves a float value from parameters with a default.
func (c *RuleConfig) GetFloat(key string, defaultValue float64) float64 {
	if val, ok := c.Parameters[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultValue
}

// GetString retrieves a string value from parameters with a default.
func (c *RuleConfig) GetString(key string, defaultValue string) string {
	if val, ok := c.Parameters[key]; ok {
		if strVal, ok := val.(string); ok {
			return strVal
		}
	}
	return defaultValue
}

// GetBool retrieves a boolean value from parameters with a default.
func (c *RuleConfig) GetBool(key string, defaultValue bool) bool {
	if val, ok := c.Parameters[key]; ok {
		if boolVal, ok := val.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}

// GetStringSlice retrieves a list of strings from parameters with a default.
func (c *RuleConfig) GetStringSlice(key string, defaultValue []string) []string {
	val, ok := c.Parameters[key]
	if !ok {
		return defaultValue
	}
	switch v := val.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return defaultValue
}

// GetIntMap retrieves a string-to-int map from parameters with a default.
func (c *RuleConfig) GetIntMap(key string, defaultValue map[string]int) map[string]int {
	val, ok := c.Parameters[key]
	if !ok {
		return defaultValue
	}
	switch v := val.(type) {
	case map[string]int:
		return v
	case map[string]interface{}:
		out := make(map[string]int, len(v))
		for k, item := range v {
			switch n := item.(type) {
			case int:
				out[k] = n
			case float64:
				out[k] = int(n)
			}
		}
		return out
	}
	return defaultValue
}
