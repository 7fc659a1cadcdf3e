package memory

import (
	"context"

	"github.com/aretw0/flowplan/pkg/domain"
)

// Loader implements ports.CatalogLoader over a fixed catalog.
type Loader struct {
	catalog domain.Catalog
}

// NewLoader creates a loader serving the given operators.
func NewLoader(ops ...domain.OperatorDefinition) *Loader {
	return &Loader{catalog: domain.Catalog{Operators: ops}}
}

// NewFromCatalog creates a loader serving a complete catalog.
func NewFromCatalog(c domain.Catalog) *Loader {
	return &Loader{catalog: c}
}

// LoadCatalog returns the catalog. Slices are copied so callers cannot mutate it.
func (l *Loader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, err
	}
	return domain.Catalog{
		Operators:   append([]domain.OperatorDefinition(nil), l.catalog.Operators...),
		MemoryItems: append([]domain.MemoryItem(nil), l.catalog.MemoryItems...),
		Types:       append([]domain.TypeNode(nil), l.catalog.Types...),
	}, nil
}
