package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can use errors.Is.
var (
	// ErrConfiguration is returned when a compilation option assignment is rejected.
	ErrConfiguration = errors.New("invalid compilation options")

	// ErrInvalidFlow is returned when a flow fails validation.
	ErrInvalidFlow = errors.New("invalid flow definition")

	// ErrCompilation is the parent of the errors raised before the engine runs.
	ErrCompilation = errors.New("compilation rejected")

	// ErrUnsupportedStrategy is returned for compilation strategies other than classical.
	ErrUnsupportedStrategy = fmt.Errorf("%w: unsupported compilation strategy", ErrCompilation)

	// ErrInvalidLookahead is returned for a negative lookahead.
	ErrInvalidLookahead = fmt.Errorf("%w: lookahead must be a non-negative integer", ErrCompilation)

	// ErrRegistryCollision is returned when two distinct identifiers normalize to one token.
	ErrRegistryCollision = errors.New("transform registry collision")

	// ErrPlannerFailure is returned when the external planner reports an error.
	ErrPlannerFailure = errors.New("planner failure")

	// ErrNoPlan is returned when the planner finishes without a plan.
	ErrNoPlan = fmt.Errorf("%w: no plan found", ErrPlannerFailure)

	// ErrUnknownEntity is returned when a builder operation names an undeclared entity.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrCacheMiss is returned by plan caches when a key is absent.
	ErrCacheMiss = errors.New("plan cache miss")
)

// ConfigurationError describes a rejected option assignment.
type ConfigurationError struct {
	Axis   string   // Option axis, e.g. "slot"
	Tags   []string // Tags that were offered
	Reason string
}

func (e *ConfigurationError) Error() string {
	if len(e.Tags) == 0 {
		return fmt.Sprintf("%s options: %s", e.Axis, e.Reason)
	}
	return fmt.Sprintf("%s options [%s]: %s", e.Axis, strings.Join(e.Tags, ", "), e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Diagnostic is one failed validation check.
type Diagnostic struct {
	Check   string `json:"check"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Entity == "" {
		return fmt.Sprintf("%s: %s", d.Check, d.Message)
	}
	return fmt.Sprintf("%s (%s): %s", d.Check, d.Entity, d.Message)
}

// ValidationError aggregates the failing checks of a flow.
type ValidationError struct {
	Flow        string
	Diagnostics []Diagnostic
}

func (e *ValidationError) Error() string {
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("flow %q: %s", e.Flow, e.Diagnostics[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "flow %q: %d validation errors:\n", e.Flow, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, d)
	}
	return sb.String()
}

func (e *ValidationError) Unwrap() error { return ErrInvalidFlow }

// CollisionError reports a second source claiming an existing token.
type CollisionError struct {
	Token    string
	Existing string
	Incoming string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%q and %q both normalize to %q", e.Existing, e.Incoming, e.Token)
}

func (e *CollisionError) Unwrap() error { return ErrRegistryCollision }

// PlannerError carries the details of a failed planner call.
type PlannerError struct {
	Status int // HTTP status or process exit code, 0 when unknown
	Detail string
}

func (e *PlannerError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("planner failed (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("planner failed: %s", e.Detail)
}

func (e *PlannerError) Unwrap() error { return ErrPlannerFailure }

// ReconstructionWarning describes a raw plan line that could not be decoded.
// It is reported alongside the decoded plan, never returned as an error.
type ReconstructionWarning struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (w ReconstructionWarning) String() string {
	return fmt.Sprintf("line %d %q: %s", w.Line, w.Text, w.Reason)
}
