// Package options defines the compilation option axes.
//
// Each axis is a small closed type, so an illegal combination (two timings, an empty
// cost policy) cannot be represented. Tag parsing rejects bad input at assignment time
// with a *domain.ConfigurationError.
package options

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowplan/pkg/domain"
)

// Timing selects when a missing value may be acquired relative to the action needing it.
type Timing int

const (
	// TimingRelaxed places no constraint on when the value is acquired.
	TimingRelaxed Timing = iota
	// TimingImmediate requires the value to be used by the very next operator.
	TimingImmediate
	// TimingEventual requires every acquired value to be used before the plan ends.
	TimingEventual
)

var timingTags = map[string]Timing{
	"relaxed":   TimingRelaxed,
	"immediate": TimingImmediate,
	"eventual":  TimingEventual,
}

func (t Timing) String() string {
	switch t {
	case TimingImmediate:
		return "immediate"
	case TimingEventual:
		return "eventual"
	default:
		return "relaxed"
	}
}

// CostPolicy is a non-empty subset of {higher_cost, last_resort}. The zero value is
// the empty set, which the compiler rejects.
type CostPolicy uint8

const (
	// CostHigher keeps slot-filling always available at a penalized cost.
	CostHigher CostPolicy = 1 << iota
	// CostLastResort only allows slot-filling values that no operator can produce.
	CostLastResort
	// CostBoth applies both rules.
	CostBoth = CostHigher | CostLastResort
)

// HigherCost reports whether slot-filling is penalized.
func (c CostPolicy) HigherCost() bool { return c&CostHigher != 0 }

// LastResort reports whether producible values are excluded from slot-filling.
func (c CostPolicy) LastResort() bool { return c&CostLastResort != 0 }

// Valid reports whether c is a non-empty subset of the known rules.
func (c CostPolicy) Valid() bool { return c != 0 && c&^CostBoth == 0 }

func (c CostPolicy) tags() []string {
	var out []string
	if c.HigherCost() {
		out = append(out, "higher_cost")
	}
	if c.LastResort() {
		out = append(out, "last_resort")
	}
	return out
}

// SlotOptions configures slot-filling pseudo-actions.
type SlotOptions struct {
	Timing  Timing
	Cost    CostPolicy
	Ordered bool
}

// MappingOptions configures mapping pseudo-actions.
type MappingOptions struct {
	Timing Timing
}

// ConfirmOptions is a set of flags requesting confirmation before trusting a value.
type ConfirmOptions uint8

const (
	// ConfirmOnSlot marks user supplied values uncertain until confirmed.
	ConfirmOnSlot ConfirmOptions = 1 << iota
	// ConfirmOnMapping marks mapped values uncertain until confirmed.
	ConfirmOnMapping
	// ConfirmOnDetermination marks operator outputs uncertain until confirmed.
	ConfirmOnDetermination
)

var confirmTags = []struct {
	tag  string
	flag ConfirmOptions
}{
	{"on_slot", ConfirmOnSlot},
	{"on_mapping", ConfirmOnMapping},
	{"on_determination", ConfirmOnDetermination},
}

// Has reports whether flag is set.
func (c ConfirmOptions) Has(flag ConfirmOptions) bool { return c&flag != 0 }

// LifeCycleOptions is a set of flags controlling reuse of produced values.
type LifeCycleOptions uint8

const (
	// UncertainOnUse makes an input uncertain once an operator consumes it.
	UncertainOnUse LifeCycleOptions = 1 << iota
	// ForgetOnUse makes an input unknown once an operator consumes it.
	ForgetOnUse
)

var lifeCycleTags = []struct {
	tag  string
	flag LifeCycleOptions
}{
	{"uncertain_on_use", UncertainOnUse},
	{"forget_on_use", ForgetOnUse},
}

// Has reports whether flag is set.
func (l LifeCycleOptions) Has(flag LifeCycleOptions) bool { return l&flag != 0 }

// GoalOptions selects how goal groups combine.
type GoalOptions int

const (
	// GoalAndAnd requires every component of every group.
	GoalAndAnd GoalOptions = iota
	// GoalOrAnd requires every component of at least one group.
	GoalOrAnd
	// GoalAndOr requires at least one component of every group.
	GoalAndOr
)

var goalTags = map[string]GoalOptions{
	"and-and": GoalAndAnd,
	"or-and":  GoalOrAnd,
	"and-or":  GoalAndOr,
}

func (g GoalOptions) String() string {
	switch g {
	case GoalOrAnd:
		return "or-and"
	case GoalAndOr:
		return "and-or"
	default:
		return "and-and"
	}
}

// Strategy names a compilation strategy.
type Strategy string

// StrategyClassical is the only supported strategy.
const StrategyClassical Strategy = "classical"

// Set is the full option set consumed by the compiler.
type Set struct {
	Slot      SlotOptions
	Mapping   MappingOptions
	Confirm   ConfirmOptions
	LifeCycle LifeCycleOptions
	Goal      GoalOptions
	Strategy  Strategy
}

// Defaults returns slot {relaxed, higher_cost}, mapping {relaxed}, no confirmation,
// no lifecycle flags, and-and goals, classical strategy.
func Defaults() Set {
	return Set{
		Slot:     SlotOptions{Timing: TimingRelaxed, Cost: CostHigher},
		Mapping:  MappingOptions{Timing: TimingRelaxed},
		Goal:     GoalAndAnd,
		Strategy: StrategyClassical,
	}
}

// Validate rejects a set the compiler cannot encode.
func (s Set) Validate() error {
	if !s.Slot.Cost.Valid() {
		return reject("slot", s.Tags().Slot, "at least one of higher_cost, last_resort is required")
	}
	return nil
}

// ParseSlotOptions parses slot tags: exactly one timing, at least one cost tag, and an
// optional "ordered".
func ParseSlotOptions(tags []string) (SlotOptions, error) {
	const axis = "slot"
	var out SlotOptions
	var timing []string
	higher, lastResort := false, false
	for _, raw := range tags {
		tag := normalizeTag(raw)
		if t, ok := timingTags[tag]; ok {
			timing = append(timing, tag)
			out.Timing = t
			continue
		}
		switch tag {
		case "higher_cost":
			higher = true
		case "last_resort":
			lastResort = true
		case "ordered":
			out.Ordered = true
		default:
			return SlotOptions{}, reject(axis, tags, "unknown tag %q", raw)
		}
	}
	if len(timing) != 1 {
		return SlotOptions{}, reject(axis, tags, "exactly one of relaxed, immediate, eventual is required")
	}
	switch {
	case higher && lastResort:
		out.Cost = CostBoth
	case lastResort:
		out.Cost = CostLastResort
	case higher:
		out.Cost = CostHigher
	default:
		return SlotOptions{}, reject(axis, tags, "at least one of higher_cost, last_resort is required")
	}
	return out, nil
}

// ParseMappingOptions parses mapping tags: exactly one timing.
func ParseMappingOptions(tags []string) (MappingOptions, error) {
	const axis = "mapping"
	var out MappingOptions
	seen := 0
	for _, raw := range tags {
		t, ok := timingTags[normalizeTag(raw)]
		if !ok {
			return MappingOptions{}, reject(axis, tags, "unknown tag %q", raw)
		}
		out.Timing = t
		seen++
	}
	if seen != 1 {
		return MappingOptions{}, reject(axis, tags, "exactly one of relaxed, immediate, eventual is required")
	}
	return out, nil
}

// ParseConfirmOptions parses zero or more confirmation flags.
func ParseConfirmOptions(tags []string) (ConfirmOptions, error) {
	var out ConfirmOptions
	for _, raw := range tags {
		tag := normalizeTag(raw)
		found := false
		for _, c := range confirmTags {
			if c.tag == tag {
				out |= c.flag
				found = true
			}
		}
		if !found {
			return 0, reject("confirm", tags, "unknown tag %q", raw)
		}
	}
	return out, nil
}

// ParseLifeCycleOptions parses zero or more lifecycle flags.
func ParseLifeCycleOptions(tags []string) (LifeCycleOptions, error) {
	var out LifeCycleOptions
	for _, raw := range tags {
		tag := normalizeTag(raw)
		found := false
		for _, l := range lifeCycleTags {
			if l.tag == tag {
				out |= l.flag
				found = true
			}
		}
		if !found {
			return 0, reject("lifecycle", tags, "unknown tag %q", raw)
		}
	}
	return out, nil
}

// ParseGoalOptions parses a single goal combination tag.
func ParseGoalOptions(tag string) (GoalOptions, error) {
	g, ok := goalTags[normalizeTag(tag)]
	if !ok {
		return 0, reject("goal", []string{tag}, "expected one of and-and, or-and, and-or")
	}
	return g, nil
}

// ParseStrategy parses a compilation strategy name.
func ParseStrategy(name string) (Strategy, error) {
	if normalizeTag(name) != string(StrategyClassical) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedStrategy, name)
	}
	return StrategyClassical, nil
}

// Tags is the string form of a Set as found in config files, CLI flags and requests.
// Empty fields keep their default.
type Tags struct {
	Slot      []string `json:"slot,omitempty" yaml:"slot,omitempty" mapstructure:"slot"`
	Mapping   []string `json:"mapping,omitempty" yaml:"mapping,omitempty" mapstructure:"mapping"`
	Confirm   []string `json:"confirm,omitempty" yaml:"confirm,omitempty" mapstructure:"confirm"`
	LifeCycle []string `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty" mapstructure:"lifecycle"`
	Goal      string   `json:"goal,omitempty" yaml:"goal,omitempty" mapstructure:"goal"`
	Strategy  string   `json:"strategy,omitempty" yaml:"strategy,omitempty" mapstructure:"strategy"`
}

// Parse converts tags into a typed Set.
func (t Tags) Parse() (Set, error) {
	set := Defaults()
	var err error
	if len(t.Slot) > 0 {
		if set.Slot, err = ParseSlotOptions(t.Slot); err != nil {
			return Set{}, err
		}
	}
	if len(t.Mapping) > 0 {
		if set.Mapping, err = ParseMappingOptions(t.Mapping); err != nil {
			return Set{}, err
		}
	}
	if set.Confirm, err = ParseConfirmOptions(t.Confirm); err != nil {
		return Set{}, err
	}
	if set.LifeCycle, err = ParseLifeCycleOptions(t.LifeCycle); err != nil {
		return Set{}, err
	}
	if t.Goal != "" {
		if set.Goal, err = ParseGoalOptions(t.Goal); err != nil {
			return Set{}, err
		}
	}
	if t.Strategy != "" {
		if set.Strategy, err = ParseStrategy(t.Strategy); err != nil {
			return Set{}, err
		}
	}
	return set, nil
}

// Tags returns the string form of s.
func (s Set) Tags() Tags {
	slot := []string{s.Slot.Timing.String()}
	slot = append(slot, s.Slot.Cost.tags()...)
	if s.Slot.Ordered {
		slot = append(slot, "ordered")
	}
	var confirm []string
	for _, c := range confirmTags {
		if s.Confirm.Has(c.flag) {
			confirm = append(confirm, c.tag)
		}
	}
	var lifecycle []string
	for _, l := range lifeCycleTags {
		if s.LifeCycle.Has(l.flag) {
			lifecycle = append(lifecycle, l.tag)
		}
	}
	strategy := s.Strategy
	if strategy == "" {
		strategy = StrategyClassical
	}
	return Tags{
		Slot:      slot,
		Mapping:   []string{s.Mapping.Timing.String()},
		Confirm:   confirm,
		LifeCycle: lifecycle,
		Goal:      s.Goal.String(),
		Strategy:  string(strategy),
	}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func reject(axis string, tags []string, format string, args ...any) error {
	return &domain.ConfigurationError{Axis: axis, Tags: tags, Reason: fmt.Sprintf(format, args...)}
}
