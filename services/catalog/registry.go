// File: services/catalog/registry.go
package catalog

import (
	"context"
	"strconv"
	"time"

	catalogRepo "tripcart/database/repository/catalog"
	"tripcart/models"
	"tripcart/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// UnitRegistry resolves a unit key to its existence, base price and current
// availability.
type UnitRegistry interface {
	Lookup(ctx context.Context, key models.UnitKey) (models.Unit, error)
}

// DefaultUnitRegistry reads through to the catalog repository. Availability
// is always fetched fresh; the base price may be served from a short-lived
// redis cache since price churn is rare.
type DefaultUnitRegistry struct {
	Catalog       catalogRepo.CatalogRepository
	PriceCache    *redis.Client
	PriceCacheTTL time.Duration
	Logger        *zap.Logger
}

func (r *DefaultUnitRegistry) Lookup(ctx context.Context, key models.UnitKey) (models.Unit, error) {
	qty, err := r.Catalog.UnitAvailability(ctx, key)
	if err != nil {
		return models.Unit{}, err
	}

	price, err := r.lookupPrice(ctx, key)
	if err != nil {
		return models.Unit{}, err
	}

	return models.Unit{Key: key, BasePrice: price, AvailableQty: qty}, nil
}

func (r *DefaultUnitRegistry) lookupPrice(ctx context.Context, key models.UnitKey) (float64, error) {
	cacheKey := utils.PriceCachePrefix + key.String()

	if r.PriceCache != nil {
		if cached, err := r.PriceCache.Get(ctx, cacheKey).Result(); err == nil {
			if price, err := strconv.ParseFloat(cached, 64); err == nil {
				return price, nil
			}
		}
	}

	price, err := r.Catalog.UnitPrice(ctx, key)
	if err != nil {
		return 0, err
	}

	if r.PriceCache != nil {
		cacheErr := r.PriceCache.Set(ctx, cacheKey,
			strconv.FormatFloat(price, 'f', -1, 64), r.PriceCacheTTL).Err()
		if cacheErr != nil && r.Logger != nil {
			// Cache misses are fine; the catalog answered.
			r.Logger.Warn("failed to cache unit price",
				zap.String("unit", key.String()), zap.Error(cacheErr))
		}
	}
	return price, nil
}
