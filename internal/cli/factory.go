package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/config"
	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/adapters/http"
	"github.com/aretw0/flowplan/pkg/adapters/loam"
	"github.com/aretw0/flowplan/pkg/adapters/memory"
	"github.com/aretw0/flowplan/pkg/adapters/process"
	"github.com/aretw0/flowplan/pkg/adapters/redis"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/observability"
	"github.com/aretw0/flowplan/pkg/persistence/middleware"
	"github.com/aretw0/flowplan/pkg/planning"
	"github.com/aretw0/flowplan/pkg/ports"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

// TracerName is the instrumentation name of planner spans.
const TracerName = "github.com/aretw0/flowplan"

// Runtime is everything a command needs, built from one Config.
type Runtime struct {
	Config  config.Config
	Service *flowplan.Service
	Metrics *observability.Metrics
	Logger  *slog.Logger
	Catalog domain.Catalog

	closers []func() error
}

// Close releases connections opened by Build.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires the planner adapter, its middleware chain, the plan cache and the
// optional catalog into a flowplan Service. A planner that is not configured is
// not an error: commands that only validate or compile still work.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	rt := &Runtime{Config: cfg, Metrics: observability.NewMetrics(), Logger: logger}

	svcOpts := []flowplan.Option{
		flowplan.WithLogger(logging.WithComponent(logger, "service")),
		flowplan.WithMetrics(rt.Metrics),
	}

	planner, err := NewPlanner(cfg.Planner, logger)
	if err != nil {
		return nil, err
	}
	if planner != nil {
		mws, err := rt.middleware(cfg, logger)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		svcOpts = append(svcOpts, flowplan.WithPlanner(planning.Chain(planner, mws...)))
	}

	if cfg.Catalog != "" {
		loader, err := loam.Open(cfg.Catalog, loam.WithLogger(logging.WithComponent(logger, "catalog")))
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		if rt.Catalog, err = loader.LoadCatalog(ctx); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}

	rt.Service = flowplan.New(svcOpts...)
	return rt, nil
}

// NewPlanner builds the configured planner adapter, or nil when none is configured.
func NewPlanner(cfg config.Planner, logger *slog.Logger) (ports.Planner, error) {
	switch cfg.Kind {
	case config.PlannerHTTP, "":
		if cfg.URL == "" {
			return nil, nil
		}
		return http.NewClient(cfg.URL,
			http.WithTimeout(cfg.Timeout.Std()),
			http.WithClientLogger(logging.WithComponent(logger, "planner")),
		)
	case config.PlannerProcess:
		pc, err := processConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts := []process.Option{process.WithLogger(logging.WithComponent(logger, "planner"))}
		if cfg.PlannersFile != "" {
			opts = append(opts, process.WithBaseDir(filepath.Dir(cfg.PlannersFile)))
		}
		return process.NewPlanner(pc, opts...)
	default:
		return nil, &domain.ConfigurationError{Axis: "planner.kind", Tags: []string{cfg.Kind}, Reason: "expected http or process"}
	}
}

func processConfig(cfg config.Planner) (process.PlannerConfig, error) {
	if cfg.Command != "" {
		return process.PlannerConfig{
			Name:    cfg.Name,
			Command: cfg.Command,
			Args:    cfg.Args,
			Timeout: cfg.Timeout.Std(),
		}, nil
	}
	planners, err := process.LoadPlanners(cfg.PlannersFile)
	if err != nil {
		return process.PlannerConfig{}, err
	}
	pc, ok := planners[cfg.Name]
	if !ok {
		return process.PlannerConfig{}, fmt.Errorf("%w: planner %q not found in %q", domain.ErrConfiguration, cfg.Name, cfg.PlannersFile)
	}
	return pc, nil
}

// middleware assembles the planner chain, outermost first: logging, cache,
// metrics, tracing, rate limit, timeout. Cache hits never reach the planner metrics.
func (rt *Runtime) middleware(cfg config.Config, logger *slog.Logger) ([]planning.Middleware, error) {
	mws := []planning.Middleware{planning.WithLogging(logging.WithComponent(logger, "planning"))}

	cacheMW, err := rt.cache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if cacheMW != nil {
		mws = append(mws, cacheMW)
	}

	mws = append(mws,
		planning.WithMetrics(rt.Metrics),
		planning.WithTracing(otel.Tracer(TracerName)),
	)
	if cfg.Planner.RateLimit > 0 {
		burst := cfg.Planner.Burst
		if burst <= 0 {
			burst = 1
		}
		mws = append(mws, planning.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.Planner.RateLimit), burst)))
	}
	return append(mws, planning.WithTimeout(cfg.Planner.Timeout.Std())), nil
}

func (rt *Runtime) cache(cfg config.Cache, logger *slog.Logger) (planning.Middleware, error) {
	var (
		store  ports.PlanCache
		locker ports.DistributedLocker
	)
	switch cfg.Kind {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		store = memory.NewCache()
		if cfg.Lock {
			locker = memory.NewLocker()
		}
	case config.CacheRedis:
		opts := []redis.Option{redis.WithTTL(cfg.TTL.Std())}
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		rc := redis.New(cfg.Addr, cfg.Password, cfg.DB, opts...)
		rt.closers = append(rt.closers, rc.Client().Close)
		store = rc
		if cfg.Lock {
			prefix := cfg.Prefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			locker = redis.NewLocker(rc.Client(), prefix)
		}
	default:
		return nil, &domain.ConfigurationError{Axis: "cache.kind", Tags: []string{cfg.Kind}, Reason: "expected none, memory or redis"}
	}

	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil || len(key) != 32 {
			return nil, &domain.ConfigurationError{Axis: "cache.encryption_key", Reason: "must be 32 bytes, base64 encoded"}
		}
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	return planning.WithCache(store, planning.CacheConfig{
		TTL:     cfg.TTL.Std(),
		Locker:  locker,
		LockTTL: time.Minute,
		Metrics: rt.Metrics,
		Logger:  logging.WithComponent(logger, "cache"),
	}), nil
}
