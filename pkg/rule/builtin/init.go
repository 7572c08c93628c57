package builtin

import (
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
)

// RegisterBuiltinRules registers all built-in rule types with the factory.
func RegisterBuiltinRules() {
	rule.RegisterRuleType(AppearanceRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewAppearanceRule(config), nil
	})

	rule.RegisterRuleType(DeviceRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewDeviceRule(config), nil
	})

	rule.RegisterRuleType(UnicodeRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewUnicodeRule(config), nil
	})

	rule.RegisterRuleType(ChatFloodRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewChatFloodRule(config), nil
	})

	rule.RegisterRuleType(CommandSpamRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewCommandSpamRule(config), nil
	})

	rule.RegisterRuleType(AdvertisingRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewAdvertisingRule(config), nil
	})

	rule.RegisterRuleType(InvalidPacketRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewInvalidPacketRule(config), nil
	})

	rule.RegisterRuleType(PacketRateRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewPacketRateRule(config), nil
	})

	rule.RegisterRuleType(InventoryRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewInventoryRule(config), nil
	})

	rule.RegisterRuleType(NewAccountRuleID, func(config rule.RuleConfig) (rule.Rule, error) {
		return NewNewAccountRule(config), nil
	})
}

// DefaultConfigs returns one enabled config per built-in rule type, using
// the type as the rule ID. It is used when no pipeline config file lists
// the rules explicitly.
func DefaultConfigs() []rule.RuleConfig {
	ids := []string{
		AppearanceRuleID,
		DeviceRuleID,
		UnicodeRuleID,
		ChatFloodRuleID,
		CommandSpamRuleID,
		AdvertisingRuleID,
		InvalidPacketRuleID,
		PacketRateRuleID,
		InventoryRuleID,
		NewAccountRuleID,
	}
	configs := make([]rule.RuleConfig, 0, len(ids))
	for _, id := range ids {
		configs = append(configs, rule.RuleConfig{ID: id, Type: id, Enabled: true})
	}
	return configs
}

// base implements the identity methods shared by every built-in rule.
type base struct {
	config rule.RuleConfig
}

// ID returns the rule identifier.
func (b *base) ID() string {
	return b.config.ID
}

// Config returns the rule configuration.
func (b *base) Config() rule.RuleConfig {
	return b.config
}

func flag(severity rule.Severity, format string, args ...interface{}) rule.Flag {
	return rule.Flag{Severity: severity, Reason: fmt.Sprintf(format, args...)}
}
