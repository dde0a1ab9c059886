package catalogRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripcart/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	hotelsCollection = "hotels"
	carsCollection   = "cars"
	eventsCollection = "events"
)

// MongoCatalogRepo reads the catalog collections the storefront's catalog
// service maintains.
type MongoCatalogRepo struct {
	db *mongo.Database
}

func NewMongoCatalogRepo(db *mongo.Database) *MongoCatalogRepo {
	return &MongoCatalogRepo{db: db}
}

// resolvedUnit is the price/availability pair a unit key resolves to.
type resolvedUnit struct {
	price        float64
	availableQty int
}

func (repo *MongoCatalogRepo) resolve(ctx context.Context, key models.UnitKey) (resolvedUnit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": key.ProductID}

	switch key.ProductType {
	case models.ProductHotel:
		var hotel models.Hotel
		if err := repo.db.Collection(hotelsCollection).FindOne(ctx, filter).Decode(&hotel); err != nil {
			return resolvedUnit{}, notFoundOr(err, "hotel %s not found", key.ProductID)
		}
		for _, room := range hotel.Rooms {
			if room.RoomID == key.RoomID {
				qty := 0
				if room.Available {
					qty = 1
				}
				return resolvedUnit{price: room.Price, availableQty: qty}, nil
			}
		}
		return resolvedUnit{}, models.NewNotFoundError(
			fmt.Sprintf("room %s not found in hotel %s", key.RoomID, key.ProductID))

	case models.ProductCar:
		var car models.Car
		if err := repo.db.Collection(carsCollection).FindOne(ctx, filter).Decode(&car); err != nil {
			return resolvedUnit{}, notFoundOr(err, "car %s not found", key.ProductID)
		}
		for _, ct := range car.Types {
			if ct.TypeID != key.CarTypeID {
				continue
			}
			for _, slot := range ct.Colors {
				if slot.ColorID == key.CarColorID {
					qty := 0
					if slot.Available {
						qty = 1
					}
					return resolvedUnit{price: ct.Price, availableQty: qty}, nil
				}
			}
		}
		return resolvedUnit{}, models.NewNotFoundError(
			fmt.Sprintf("color %s/%s not found on car %s", key.CarTypeID, key.CarColorID, key.ProductID))

	case models.ProductEvent:
		var event models.Event
		if err := repo.db.Collection(eventsCollection).FindOne(ctx, filter).Decode(&event); err != nil {
			return resolvedUnit{}, notFoundOr(err, "event %s not found", key.ProductID)
		}
		for _, tier := range event.Tiers {
			if tier.TierID == key.EventTypeID {
				return resolvedUnit{price: tier.Price, availableQty: tier.Remaining}, nil
			}
		}
		return resolvedUnit{}, models.NewNotFoundError(
			fmt.Sprintf("tier %s not found in event %s", key.EventTypeID, key.ProductID))
	}

	return resolvedUnit{}, models.NewInvalidInputError(fmt.Sprintf("unknown product type %q", key.ProductType))
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFoundError(fmt.Sprintf(format, args...))
	}
	return models.NewStoreUnavailableError(fmt.Sprintf("catalog lookup failed: %v", err))
}

func (repo *MongoCatalogRepo) UnitAvailability(ctx context.Context, key models.UnitKey) (int, error) {
	unit, err := repo.resolve(ctx, key)
	if err != nil {
		return 0, err
	}
	return unit.availableQty, nil
}

func (repo *MongoCatalogRepo) UnitPrice(ctx context.Context, key models.UnitKey) (float64, error) {
	unit, err := repo.resolve(ctx, key)
	if err != nil {
		return 0, err
	}
	return unit.price, nil
}
