package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/flowplan/internal/config"
	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger builds the application logger from the log section of the config.
// Logs go to stderr so stdout stays clean for plans and PDDL.
func NewLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	return logging.NewWithFormat(w, level, cfg.Format), nil
}

// LoadFlow reads a flow document and merges catalog capabilities into it.
// A path of "-" reads YAML or JSON from stdin.
func LoadFlow(path string, catalog domain.Catalog, stdin io.Reader) (*domain.FlowDefinition, error) {
	var (
		flow *domain.FlowDefinition
		err  error
	)
	if path == "-" {
		data, readErr := io.ReadAll(stdin)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read flow from stdin: %w", readErr)
		}
		flow, err = domain.ParseFlowDocument(data, "yaml")
	} else {
		flow, err = domain.LoadFlowFile(path)
	}
	if err != nil {
		return nil, err
	}
	flow.AddCatalog(catalog)
	return flow, nil
}
