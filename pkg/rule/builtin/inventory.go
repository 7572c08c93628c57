package builtin

import (
	"context"
	"strings"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/sirupsen/logrus"
)

const (
	// InventoryRuleID is the identifier for the inventory exploit check
	InventoryRuleID = "inventory"

	DefaultMaxStackSize    = 64
	DefaultMaxStackCount   = 255
	DefaultMaxEnchantLevel = 255
	DefaultMaxMetadataSize = 50_000
)

var defaultCriticalItems = []string{
	"minecraft:command_block",
	"minecraft:chain_command_block",
	"minecraft:repeating_command_block",
	"minecraft:command_block_minecart",
	"minecraft:structure_block",
	"minecraft:jigsaw",
}

var defaultBlacklistedItems = []string{
	"minecraft:barrier",
	"minecraft:bedrock",
	"minecraft:light_block",
	"minecraft:allow",
	"minecraft:deny",
	"minecraft:border_block",
	"minecraft:structure_void",
	"minecraft:moving_block",
	"minecraft:spawn_egg",
}

var enchantCaps = map[string]int{
	"protection":            4,
	"fire_protection":       4,
	"feather_falling":       4,
	"blast_protection":      4,
	"projectile_protection": 4,
	"thorns":                3,
	"respiration":           3,
	"depth_strider":         3,
	"aqua_affinity":         1,
	"sharpness":             5,
	"smite":                 5,
	"bane_of_arthropods":    5,
	"knockback":             2,
	"fire_aspect":           2,
	"looting":               3,
	"efficiency":            5,
	"silk_touch":            1,
	"unbreaking":            3,
	"fortune":               3,
	"power":                 5,
	"punch":                 2,
	"flame":                 1,
	"infinity":              1,
	"luck_of_the_sea":       3,
	"lure":                  3,
	"frost_walker":          2,
	"mending":               1,
	"binding":               1,
	"vanishing":             1,
	"impaling":              5,
	"riptide":               3,
	"loyalty":               3,
	"channeling":            1,
	"multishot":             1,
	"piercing":              4,
	"quick_charge":          3,
	"soul_speed":            3,
	"swift_sneak":           3,
}

// InventoryRule scans inventory transactions for items a survival client
// cannot hold.
type InventoryRule struct {
	base
	critical    map[string]bool
	blacklisted map[string]bool
	maxStack    int
	maxCount    int
	maxEnchant  int
	maxMetadata int
}

// NewInventoryRule creates a new inventory rule.
func NewInventoryRule(config rule.RuleConfig) *InventoryRule {
	r := &InventoryRule{
		base:        base{config: config},
		critical:    itemSet(config.GetStringSlice("critical_items", defaultCriticalItems)),
		blacklisted: itemSet(config.GetStringSlice("blacklisted_items", defaultBlacklistedItems)),
		maxStack:    config.GetInt("max_stack_size", DefaultMaxStackSize),
		maxCount:    config.GetInt("max_stack_count", DefaultMaxStackCount),
		maxEnchant:  config.GetInt("max_enchant_level", DefaultMaxEnchantLevel),
		maxMetadata: config.GetInt("max_metadata_size", DefaultMaxMetadataSize),
	}

	logrus.Infof("creating inventory rule with %d critical and %d blacklisted items", len(r.critical), len(r.blacklisted))

	return r
}

// Name returns the rule name.
func (r *InventoryRule) Name() string {
	return "Inventory Exploit Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *InventoryRule) SignalTypes() []string {
	return []string{signal.TypeInventory}
}

// Enabled reports whether the tenant enables the check.
func (r *InventoryRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.Inventory.Enabled
}

// Evaluate scans every item of the transaction.
func (r *InventoryRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	inv, ok := in.Signal.(*signal.InventorySignal)
	if !ok {
		return nil, rule.Malformed("expected InventorySignal, got %T", in.Signal)
	}

	var flags []rule.Flag
	for _, item := range inv.Items {
		flags = append(flags, r.checkItem(item)...)
	}
	return flags, nil
}

func (r *InventoryRule) checkItem(item signal.ItemStack) []rule.Flag {
	var flags []rule.Flag
	id := itemID(item.ID)

	switch {
	case r.critical[id]:
		flags = append(flags, flag(rule.SeverityCritical, "restricted item %s", id))
	case r.blacklisted[id]:
		flags = append(flags, flag(rule.SeverityHigh, "blacklisted item %s", id))
	}

	switch {
	case item.Count < 0 || item.Count > r.maxCount:
		flags = append(flags, flag(rule.SeverityCritical, "impossible stack of %d %s", item.Count, id))
	case item.Count > r.maxStack:
		flags = append(flags, flag(rule.SeverityMedium, "oversized stack of %d %s", item.Count, id))
	}

	for _, e := range item.Enchantments {
		name := strings.TrimPrefix(strings.ToLower(e.ID), "minecraft:")
		switch {
		case e.Level <= 0 || e.Level > r.maxEnchant:
			flags = append(flags, flag(rule.SeverityCritical, "%s has %s level %d", id, name, e.Level))
		default:
			if limit, known := enchantCaps[name]; known && e.Level > limit {
				flags = append(flags, flag(rule.SeverityHigh, "%s has %s %d (max %d)", id, name, e.Level, limit))
			}
		}
	}

	if item.MetadataSize > r.maxMetadata {
		flags = append(flags, flag(rule.SeverityCritical, "%s carries %d bytes of metadata", id, item.MetadataSize))
	}

	return flags
}

func itemSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[itemID(id)] = true
	}
	return set
}

// itemID lowercases an identifier and adds the default namespace.
func itemID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id != "" && !strings.Contains(id, ":") {
		id = "minecraft:" + id
	}
	return id
}
