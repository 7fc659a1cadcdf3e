package loam

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository of agent documents to the CatalogLoader port.
type Loader struct {
	Repo   *loam.TypedRepository[AgentMetadata]
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a new Loam catalog loader.
func New(repo *loam.TypedRepository[AgentMetadata], opts ...Option) *Loader {
	l := &Loader{Repo: repo, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a Loam repository at dir and wraps it in a Loader.
func Open(dir string, opts ...Option) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog dir: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", abs, err)
	}
	return New(loam.NewTypedRepository[AgentMetadata](repo), opts...), nil
}

// LoadCatalog implements ports.CatalogLoader. Every enabled agent becomes an operator.
// Parameters named in signatures become memory items of their declared type.
func (l *Loader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("loam list failed: %w", err)
	}

	b := &catalogBuilder{items: make(map[string]int), types: make(map[string]bool)}
	seen := make(map[string]string)

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	for _, doc := range docs {
		meta := doc.Data
		name := agentName(meta, doc.ID)

		if existing, ok := seen[name]; ok {
			return domain.Catalog{}, fmt.Errorf("%w: collision detected: agent '%s' is defined in both '%s' and '%s'",
				domain.ErrConfiguration, name, existing, doc.ID)
		}
		seen[name] = doc.ID

		if meta.Disabled {
			l.logger.Debug("skipping disabled agent", "agent", name, "document", doc.ID)
			continue
		}

		op, err := b.operator(name, meta)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("%s: %w", doc.ID, err)
		}
		b.catalog.Operators = append(b.catalog.Operators, op)
	}

	l.logger.Info("catalog loaded",
		"operators", len(b.catalog.Operators),
		"memory_items", len(b.catalog.MemoryItems),
		"types", len(b.catalog.Types))
	return b.catalog, nil
}

func agentName(meta AgentMetadata, docID string) string {
	switch {
	case meta.Name != "":
		return meta.Name
	case meta.ID != "":
		return trimExtension(meta.ID)
	default:
		return trimExtension(docID)
	}
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	if ext := filepath.Ext(id); ext != "" {
		return strings.TrimSuffix(id, ext)
	}
	return id
}

type catalogBuilder struct {
	catalog domain.Catalog
	items   map[string]int
	types   map[string]bool
}

func (b *catalogBuilder) operator(name string, meta AgentMetadata) (domain.OperatorDefinition, error) {
	inputs, err := b.signature(meta.Inputs)
	if err != nil {
		return domain.OperatorDefinition{}, fmt.Errorf("agent %s inputs: %w", name, err)
	}
	outputs, err := b.signature(meta.Outputs)
	if err != nil {
		return domain.OperatorDefinition{}, fmt.Errorf("agent %s outputs: %w", name, err)
	}

	op := domain.OperatorDefinition{Name: name, Cost: meta.Cost}
	if inputs != nil {
		op.Inputs = []domain.SignatureItem{*inputs}
	}
	if outputs != nil {
		op.Outcomes = []domain.Outcome{{Effects: []domain.SignatureItem{*outputs}}}
	}
	return op, nil
}

// signature folds a list of parameters and constraints into one SignatureItem.
func (b *catalogBuilder) signature(sigs []SignatureMetadata) (*domain.SignatureItem, error) {
	if len(sigs) == 0 {
		return nil, nil
	}
	item := &domain.SignatureItem{}
	for _, s := range sigs {
		if s.isConstraint() {
			c, err := b.constraint(s)
			if err != nil {
				return nil, err
			}
			item.Constraints = append(item.Constraints, c)
			continue
		}
		if s.Name == "" {
			return nil, fmt.Errorf("%w: signature without a name", domain.ErrConfiguration)
		}
		b.item(s)
		item.Parameters = append(item.Parameters, s.Name)
	}
	return item, nil
}

func (b *catalogBuilder) constraint(s SignatureMetadata) (domain.Constraint, error) {
	value, err := evaluate(s.Evaluate)
	if err != nil {
		return domain.Constraint{}, fmt.Errorf("constraint %q: %w", s.Constraint, err)
	}
	params := make([]string, 0, len(s.Variables))
	for _, v := range s.Variables {
		if v.Name == "" {
			continue
		}
		b.item(v)
		params = append(params, v.Name)
	}
	return domain.NewConstraint(s.Constraint, value, params...), nil
}

// item records a memory item the first time it is seen. A later declaration may
// fill in a type the first one left out.
func (b *catalogBuilder) item(s SignatureMetadata) {
	if idx, ok := b.items[s.Name]; ok {
		if b.catalog.MemoryItems[idx].Type == "" && s.Type != "" {
			b.catalog.MemoryItems[idx].Type = s.Type
			b.typ(s.Type)
		}
		return
	}
	b.items[s.Name] = len(b.catalog.MemoryItems)
	b.catalog.MemoryItems = append(b.catalog.MemoryItems, domain.MemoryItem{ID: s.Name, Type: s.Type})
	b.typ(s.Type)
}

func (b *catalogBuilder) typ(name string) {
	if name == "" || b.types[name] {
		return
	}
	b.types[name] = true
	b.catalog.Types = append(b.catalog.Types, domain.TypeNode{Name: name})
}

func evaluate(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return true, nil
	case bool:
		return val, nil
	case string:
		if val == "" {
			return true, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("%w: evaluate must be true or false, got %q", domain.ErrConfiguration, val)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: evaluate must be true or false, got %T", domain.ErrConfiguration, v)
	}
}
