package builtin

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	// AppearanceRuleID is the identifier for the skin and geometry check
	AppearanceRuleID = "appearance"

	DefaultMinSkinDimension     = 16
	DefaultMaxSkinAspectRatio   = 4.0
	DefaultSkinSampleLimit      = 4096
	DefaultTransparentRatio     = 0.90
	DefaultSingleColorRatio     = 0.95
	DefaultMaxGeometryBones     = 100
	DefaultMaxGeometryDistance  = 1000.0
	DefaultMinGeometryComponent = 0.001
	bytesPerPixel               = 4
)

var defaultGeometryBlacklist = []string{
	"geometry.invisible",
	"geometry.crash",
	"crash",
	"exploit",
	"lagger",
	"\\u0000",
}

// AppearanceRule inspects the declared skin image and geometry of a joining
// player for payloads used to crash clients or hide the player.
type AppearanceRule struct {
	base
	minDimension int
	maxAspect    float64
	sampleLimit  int
	transparent  float64
	singleColor  float64
	maxBones     int
	maxDistance  float64
	minComponent float64
	blacklist    []string
}

// NewAppearanceRule creates a new appearance rule.
func NewAppearanceRule(config rule.RuleConfig) *AppearanceRule {
	r := &AppearanceRule{
		base:         base{config: config},
		minDimension: config.GetInt("min_dimension", DefaultMinSkinDimension),
		maxAspect:    config.GetFloat("max_aspect_ratio", DefaultMaxSkinAspectRatio),
		sampleLimit:  config.GetInt("sample_limit", DefaultSkinSampleLimit),
		transparent:  config.GetFloat("transparent_ratio", DefaultTransparentRatio),
		singleColor:  config.GetFloat("single_color_ratio", DefaultSingleColorRatio),
		maxBones:     config.GetInt("max_bones", DefaultMaxGeometryBones),
		maxDistance:  config.GetFloat("max_distance", DefaultMaxGeometryDistance),
		minComponent: config.GetFloat("min_component", DefaultMinGeometryComponent),
		blacklist:    config.GetStringSlice("geometry_blacklist", defaultGeometryBlacklist),
	}
	if r.sampleLimit <= 0 {
		r.sampleLimit = DefaultSkinSampleLimit
	}

	logrus.Infof("creating appearance rule with min_dimension=%d, max_bones=%d", r.minDimension, r.maxBones)

	return r
}

// Name returns the rule name.
func (r *AppearanceRule) Name() string {
	return "Appearance Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *AppearanceRule) SignalTypes() []string {
	return []string{signal.TypeJoin}
}

// Enabled reports whether the tenant enables the check.
func (r *AppearanceRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.Appearance.Enabled
}

// Evaluate checks the skin of a joining player.
func (r *AppearanceRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	join, ok := in.Signal.(*signal.JoinSignal)
	if !ok {
		return nil, rule.Malformed("expected JoinSignal, got %T", in.Signal)
	}
	skin := join.Facts.Skin

	var flags []rule.Flag
	w, h := skin.ImageWidth, skin.ImageHeight
	if w <= 0 || h <= 0 {
		// Nothing else can be judged without dimensions.
		return append(flags, flag(rule.SeverityCritical, "non-positive skin dimensions %dx%d", w, h)), nil
	}
	if w < r.minDimension || h < r.minDimension {
		flags = append(flags, flag(rule.SeverityCritical, "skin dimensions %dx%d below %dpx", w, h, r.minDimension))
	}

	aspect := float64(w) / float64(h)
	if aspect < 1 {
		aspect = 1 / aspect
	}
	if aspect > r.maxAspect {
		flags = append(flags, flag(rule.SeverityHigh, "extreme skin aspect ratio %.1f:1", aspect))
	}

	flags = append(flags, r.checkPixels(skin, w, h)...)
	flags = append(flags, r.checkGeometry(skin.GeometryData)...)

	return flags, nil
}

// checkPixels samples the RGBA buffer at a fixed stride.
func (r *AppearanceRule) checkPixels(skin signal.SkinData, w, h int) []rule.Flag {
	data := skin.ImageData
	if len(data) == 0 {
		return nil
	}

	var flags []rule.Flag
	if len(data) != w*h*bytesPerPixel {
		flags = append(flags, flag(rule.SeverityHigh, "skin buffer is %d bytes, expected %d for %dx%d", len(data), w*h*bytesPerPixel, w, h))
	}

	pixels := len(data) / bytesPerPixel
	if pixels == 0 {
		return flags
	}
	stride := pixels / r.sampleLimit
	if stride < 1 {
		stride = 1
	}

	sampled, transparent := 0, 0
	colors := make(map[uint32]int)
	for i := 0; i < pixels; i += stride {
		px := data[i*bytesPerPixel : i*bytesPerPixel+bytesPerPixel]
		sampled++
		if px[3] == 0 {
			transparent++
		}
		colors[uint32(px[0])<<24|uint32(px[1])<<16|uint32(px[2])<<8|uint32(px[3])]++
	}

	if ratio := float64(transparent) / float64(sampled); ratio > r.transparent {
		return append(flags, flag(rule.SeverityCritical, "skin is %.0f%% transparent", ratio*100))
	}

	dominant := 0
	for _, n := range colors {
		if n > dominant {
			dominant = n
		}
	}
	if ratio := float64(dominant) / float64(sampled); ratio > r.singleColor {
		flags = append(flags, flag(rule.SeverityMedium, "skin is %.0f%% a single color", ratio*100))
	}

	return flags
}

// checkGeometry parses the geometry descriptor and inspects every bone.
func (r *AppearanceRule) checkGeometry(geometry string) []rule.Flag {
	if strings.TrimSpace(geometry) == "" {
		return nil
	}

	var flags []rule.Flag
	lower := strings.ToLower(geometry)
	for _, banned := range r.blacklist {
		if banned != "" && strings.Contains(lower, strings.ToLower(banned)) {
			flags = append(flags, flag(rule.SeverityCritical, "geometry contains blacklisted %q", banned))
			break
		}
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(geometry), &doc); err != nil {
		return append(flags, flag(rule.SeverityMedium, "geometry is not parseable: %v", err))
	}

	bones := collectBones(doc, nil)
	if len(bones) > r.maxBones {
		flags = append(flags, flag(rule.SeverityHigh, "geometry declares %d bones (max %d)", len(bones), r.maxBones))
	}

	degenerate, distant := -1, -1
	for i, bone := range bones {
		if v, ok := vector(bone["pivot"]); ok && distance(v) > r.maxDistance && distant < 0 {
			distant = i
		}
		if scale, ok := bone["scale"]; ok && r.nearZero(scale) && degenerate < 0 {
			degenerate = i
		}
		cubes, _ := bone["cubes"].([]interface{})
		for _, c := range cubes {
			cube, ok := c.(map[string]interface{})
			if !ok {
				continue
			}
			if v, ok := vector(cube["origin"]); ok && distance(v) > r.maxDistance && distant < 0 {
				distant = i
			}
			if size, ok := cube["size"]; ok && r.nearZero(size) && degenerate < 0 {
				degenerate = i
			}
		}
	}

	if degenerate >= 0 {
		flags = append(flags, flag(rule.SeverityHigh, "geometry bone %s has near-zero size or scale", boneName(bones[degenerate], degenerate)))
	}
	if distant >= 0 {
		flags = append(flags, flag(rule.SeverityCritical, "geometry bone %s is more than %.0f units from center", boneName(bones[distant], distant), r.maxDistance))
	}

	return flags
}

// nearZero reports whether a scale or size value collapses to nothing:
// every component of a vector, or a scalar, is below minComponent.
func (r *AppearanceRule) nearZero(value interface{}) bool {
	if n, ok := value.(float64); ok {
		return math.Abs(n) < r.minComponent
	}
	v, ok := vector(value)
	if !ok || len(v) == 0 {
		return false
	}
	for _, c := range v {
		if math.Abs(c) >= r.minComponent {
			return false
		}
	}
	return true
}

// collectBones walks the decoded document and gathers every object found
// in a "bones" array, for both the legacy and the format_version layouts.
func collectBones(node interface{}, out []map[string]interface{}) []map[string]interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, child := range v {
			if key == "bones" {
				if list, ok := child.([]interface{}); ok {
					for _, b := range list {
						if bone, ok := b.(map[string]interface{}); ok {
							out = append(out, bone)
						}
					}
					continue
				}
			}
			out = collectBones(child, out)
		}
	case []interface{}:
		for _, child := range v {
			out = collectBones(child, out)
		}
	}
	return out
}

func vector(value interface{}) ([]float64, bool) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, false
	}
	v := make([]float64, 0, len(list))
	for _, item := range list {
		n, ok := item.(float64)
		if !ok {
			return nil, false
		}
		v = append(v, n)
	}
	return v, true
}

func distance(v []float64) float64 {
	sum := 0.0
	for _, c := range v {
		sum += c * c
	}
	return math.Sqrt(sum)
}

func boneName(bone map[string]interface{}, index int) string {
	if name, ok := bone["name"].(string); ok && name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("#%d", index)
}
