package rule

import (
	"fmt"
	"strings"
)

// Severity ranks a detection flag. The zero value means no flag.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// HighFlagsForAutoBan is how many HIGH flags trigger an automatic ban
// when no CRITICAL flag is present.
const HighFlagsForAutoBan = 2

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "NONE"
	}
}

// MarshalText encodes the severity by name in outbound events.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "LOW":
		*s = SeverityLow
	case "MEDIUM":
		*s = SeverityMedium
	case "HIGH":
		*s = SeverityHigh
	case "CRITICAL":
		*s = SeverityCritical
	case "NONE", "":
		*s = SeverityNone
	default:
		return fmt.Errorf("unknown severity: %s", text)
	}
	return nil
}

// Flag is one finding of a detector.
type Flag struct {
	Check    string   `json:"check"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
}

// Verdict aggregates every flag raised for one signal.
type Verdict struct {
	Flagged  bool     `json:"flagged"`
	Flags    []Flag   `json:"flags"`
	Severity Severity `json:"severity"`
	AutoBan  bool     `json:"autoBan"`
}

// NewVerdict builds a verdict from flags. AutoBan is set when at least one
// flag is CRITICAL or at least HighFlagsForAutoBan flags are HIGH.
func NewVerdict(flags []Flag) *Verdict {
	v := &Verdict{Flags: flags}
	high := 0
	for _, f := range flags {
		if f.Severity > v.Severity {
			v.Severity = f.Severity
		}
		switch f.Severity {
		case SeverityCritical:
			v.AutoBan = true
		case SeverityHigh:
			high++
		}
	}
	if high >= HighFlagsForAutoBan {
		v.AutoBan = true
	}
	v.Flagged = len(flags) > 0
	return v
}

// Checks returns the distinct check names in flag order.
func (v *Verdict) Checks() []string {
	seen := make(map[string]bool, len(v.Flags))
	var checks []string
	for _, f := range v.Flags {
		if seen[f.Check] {
			continue
		}
		seen[f.Check] = true
		checks = append(checks, f.Check)
	}
	return checks
}

// Reason joins the flag reasons for enforcement and logs.
func (v *Verdict) Reason() string {
	parts := make([]string, 0, len(v.Flags))
	for _, f := range v.Flags {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Check, f.Reason))
	}
	return strings.Join(parts, "; ")
}
