package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
	"golang.org/x/sync/errgroup"
)

// CompileJob is one flow file to compile.
type CompileJob struct {
	Path    string
	Domain  string // output path of the domain file
	Problem string // output path of the problem file
}

// CompileOutcome reports one compiled flow.
type CompileOutcome struct {
	Job  CompileJob
	Flow string
	Err  error
}

// Jobs derives output paths for each input: <out>/<name>.domain.pddl and
// <out>/<name>.problem.pddl. An empty out writes next to the input.
func Jobs(paths []string, out string) []CompileJob {
	jobs := make([]CompileJob, len(paths))
	for i, p := range paths {
		dir := out
		if dir == "" {
			dir = filepath.Dir(p)
		}
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		jobs[i] = CompileJob{
			Path:    p,
			Domain:  filepath.Join(dir, base+".domain.pddl"),
			Problem: filepath.Join(dir, base+".problem.pddl"),
		}
	}
	return jobs
}

// CompileAll compiles every job concurrently, at most limit at a time, and writes
// the PDDL files. Every job runs; outcomes are returned in job order and the error
// is the first failure.
func CompileAll(ctx context.Context, svc *flowplan.Service, jobs []CompileJob, catalog domain.Catalog, set options.Set, lookahead, limit int) ([]CompileOutcome, error) {
	outcomes := make([]CompileOutcome, len(jobs))
	var (
		mu       sync.Mutex
		firstErr error
	)

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = CompileOutcome{Job: job, Err: err}
				return nil
			}
			outcomes[i] = compileOne(svc, job, catalog, set, lookahead)
			if outcomes[i].Err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = outcomes[i].Err
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, firstErr
}

func compileOne(svc *flowplan.Service, job CompileJob, catalog domain.Catalog, set options.Set, lookahead int) CompileOutcome {
	out := CompileOutcome{Job: job}
	flow, err := LoadFlow(job.Path, catalog, nil)
	if err != nil {
		out.Err = err
		return out
	}
	out.Flow = flow.Name

	comp, err := svc.Compile(flow, set, lookahead)
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", job.Path, err)
		return out
	}
	if err := os.MkdirAll(filepath.Dir(job.Domain), 0o755); err != nil {
		out.Err = err
		return out
	}
	if err := os.WriteFile(job.Domain, []byte(comp.PDDL.Domain), 0o644); err != nil {
		out.Err = err
		return out
	}
	if err := os.WriteFile(job.Problem, []byte(comp.PDDL.Problem), 0o644); err != nil {
		out.Err = err
	}
	return out
}
