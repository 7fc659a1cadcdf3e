// Package transform maps human identifiers to planner-safe tokens and back.
package transform

import (
	"regexp"
	"strings"

	"github.com/aretw0/flowplan/pkg/domain"
)

var whitespace = regexp.MustCompile(`[\s\p{Zs}]+`)

// Transform is one recorded source/target identifier pair.
type Transform struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Registry records the identifier transforms of a single compilation.
// It is append-only and not safe for concurrent mutation; every compile builds a fresh one.
type Registry struct {
	transforms []Transform
	byTarget   map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTarget: make(map[string]string),
	}
}

// Canonical returns the token for raw without recording anything.
func Canonical(raw string) string {
	return whitespace.ReplaceAllString(strings.ToLower(raw), "_")
}

// Normalize returns the token for raw. A transform is recorded the first time raw
// normalizes to a different string. It fails with a *domain.CollisionError when the
// token is already claimed by a different source.
func (r *Registry) Normalize(raw string) (string, error) {
	token := Canonical(raw)
	if err := r.claim(raw, token); err != nil {
		return "", err
	}
	return token, nil
}

// Register records an explicit pair, for tokens that are synthesized rather than derived.
// A source may own several tokens; a token never has more than one source.
func (r *Registry) Register(source, target string) error {
	return r.claim(source, target)
}

func (r *Registry) claim(source, token string) error {
	if existing, ok := r.byTarget[token]; ok {
		if existing != source {
			return &domain.CollisionError{Token: token, Existing: existing, Incoming: source}
		}
		return nil
	}
	// Identity tokens still claim their slot so a later source cannot take it.
	r.byTarget[token] = source
	if token == source {
		return nil
	}
	r.transforms = append(r.transforms, Transform{Source: source, Target: token})
	return nil
}

// Revert returns the registered source of token, or token itself when none was recorded.
func (r *Registry) Revert(token string) string {
	if source, ok := r.byTarget[token]; ok {
		return source
	}
	return token
}

// Transforms returns the recorded pairs in insertion order.
func (r *Registry) Transforms() []Transform {
	out := make([]Transform, len(r.transforms))
	copy(out, r.transforms)
	return out
}

// Len returns the number of recorded transforms.
func (r *Registry) Len() int { return len(r.transforms) }
