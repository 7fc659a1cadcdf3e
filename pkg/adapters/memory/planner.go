package memory

import (
	"context"
	"sync"

	"github.com/aretw0/flowplan/pkg/domain"
)

// Planner is a scripted ports.Planner. It answers every problem with the same raw
// plan (or error) and records the problems it was asked to solve.
type Planner struct {
	mu       sync.Mutex
	raw      string
	err      error
	problems []domain.PDDL
}

// NewPlanner returns a planner that always answers raw.
func NewPlanner(raw string) *Planner {
	return &Planner{raw: raw}
}

// NewFailingPlanner returns a planner that always fails with err.
func NewFailingPlanner(err error) *Planner {
	return &Planner{err: err}
}

// Plan records the problem and returns the scripted answer.
func (p *Planner) Plan(ctx context.Context, problem domain.PDDL) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.problems = append(p.problems, problem)
	if p.err != nil {
		return "", p.err
	}
	return p.raw, nil
}

// Calls returns how many problems were submitted.
func (p *Planner) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.problems)
}

// Last returns the most recent problem, if any.
func (p *Planner) Last() (domain.PDDL, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.problems) == 0 {
		return domain.PDDL{}, false
	}
	return p.problems[len(p.problems)-1], true
}
