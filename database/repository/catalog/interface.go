package catalogRepo

import (
	"context"

	"tripcart/models"
)

// CatalogRepository is the engine's read-only view of the storefront catalog.
// The catalog service owns all writes; a notFound error means the product or
// its sub-unit was deleted under the cart's feet and the caller must fail the
// operation, not retry.
type CatalogRepository interface {
	// UnitAvailability resolves the unit's current availability: a 0/1 flag
	// for binary units, the remaining ticket count for event tiers. Must be
	// asked fresh at hold time; never cached.
	UnitAvailability(ctx context.Context, key models.UnitKey) (int, error)

	// UnitPrice resolves the unit's base price.
	UnitPrice(ctx context.Context, key models.UnitKey) (float64, error)
}
