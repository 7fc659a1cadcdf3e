package ports

import (
	"context"

	"github.com/aretw0/flowplan/pkg/domain"
)

// CatalogLoader loads a set of capabilities from outside a flow.
// This allows the capability set to change without code (Loam directory, memory, ...).
type CatalogLoader interface {
	// LoadCatalog reads every operator, memory item and type the source declares.
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}
