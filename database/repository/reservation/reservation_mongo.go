package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"tripcart/models"
	"tripcart/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartItemsCollection = "cart_items"

// cartItemDoc stores the flattened unit key alongside the item so holds for
// one unit can be matched with a single indexed field.
type cartItemDoc struct {
	models.CartItem `bson:",inline"`
	UnitKeyStr      string `bson:"unitKey"`
}

// MongoReservationRepo implements ReservationRepository over a mongo
// collection, one document per hold.
type MongoReservationRepo struct {
	coll  *mongo.Collection
	locks *unitLockRegistry
	clock utils.Clock
}

func NewMongoReservationRepo(db *mongo.Database, clock utils.Clock) *MongoReservationRepo {
	return &MongoReservationRepo{
		coll:  db.Collection(cartItemsCollection),
		locks: newUnitLockRegistry(),
		clock: clock,
	}
}

// cartItemIndexes returns the lookup indexes plus a TTL index that purges
// held and expired documents an hour after their expiry instant. Confirmed
// documents are exempt: they must survive until the payment callback deletes
// or reverts them, however late it arrives.
func cartItemIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "unitKey", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(3600).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": []string{
						string(models.HoldHeld),
						string(models.HoldExpired),
					}},
				}),
		},
	}
}

// EnsureIndexes creates the cart_items indexes.
func (repo *MongoReservationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := repo.coll.Indexes().CreateMany(ctx, cartItemIndexes())
	if err != nil {
		return fmt.Errorf("failed to ensure cart_items indexes: %w", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	return models.NewStoreUnavailableError(fmt.Sprintf("%s: %v", op, err))
}

// claimsForUnit fetches every item that may still claim the unit: live holds
// and payment-pending confirmed items both count.
func (repo *MongoReservationRepo) claimsForUnit(ctx context.Context, key models.UnitKey) ([]models.CartItem, error) {
	cur, err := repo.coll.Find(ctx, bson.M{
		"unitKey": key.String(),
		"status":  bson.M{"$in": []models.HoldStatus{models.HoldHeld, models.HoldConfirmed}},
	})
	if err != nil {
		return nil, storeErr("find claims", err)
	}
	var docs []cartItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode claims", err)
	}
	items := make([]models.CartItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.CartItem)
	}
	return items, nil
}

func (repo *MongoReservationRepo) TryHold(ctx context.Context, req HoldRequest) (*models.CartItem, error) {
	var created *models.CartItem

	err := repo.locks.withLock(req.Unit.String(), func() error {
		now := repo.clock.Now()

		claims, err := repo.claimsForUnit(ctx, req.Unit)
		if err != nil {
			return err
		}

		if req.Unit.ProductType.Binary() {
			if existing, ok := BlockingClaim(claims, now); ok {
				if existing.SessionID == req.SessionID && existing.Status == models.HoldHeld {
					created = &existing
					return nil
				}
				if existing.Status == models.HoldConfirmed {
					return models.NewAlreadyHeldError(
						fmt.Sprintf("unit %s is awaiting a payment outcome", req.Unit))
				}
				return models.NewAlreadyHeldError(
					fmt.Sprintf("unit %s is held by another session", req.Unit))
			}
			if req.AvailableQty < 1 {
				return models.NewAlreadyHeldError(
					fmt.Sprintf("unit %s is not available", req.Unit))
			}
		} else {
			if req.Quantity+BlockedQuantity(claims, now) > req.AvailableQty {
				return models.NewInsufficientAvailabilityError(
					fmt.Sprintf("tier %s cannot cover %d more tickets", req.Unit, req.Quantity))
			}
		}

		item := models.CartItem{
			ID:                uuid.New().String(),
			SessionID:         req.SessionID,
			Unit:              req.Unit,
			Quantity:          req.Quantity,
			UnitPriceSnapshot: req.UnitPrice,
			Status:            models.HoldHeld,
			CreatedAt:         now,
			ExpiresAt:         now.Add(req.TTL),
		}
		if _, err := repo.coll.InsertOne(ctx, cartItemDoc{CartItem: item, UnitKeyStr: req.Unit.String()}); err != nil {
			return storeErr("insert hold", err)
		}
		created = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo *MongoReservationRepo) Release(ctx context.Context, sessionID string, key models.UnitKey) error {
	return repo.locks.withLock(key.String(), func() error {
		_, err := repo.coll.DeleteOne(ctx, bson.M{
			"sessionId": sessionID,
			"unitKey":   key.String(),
			"status":    models.HoldHeld,
		})
		if err != nil {
			return storeErr("release hold", err)
		}
		return nil
	})
}

func (repo *MongoReservationRepo) ListBySession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	now := repo.clock.Now()
	cur, err := repo.coll.Find(ctx, bson.M{
		"sessionId": sessionID,
		"status":    models.HoldHeld,
		"expiresAt": bson.M{"$gt": now},
	})
	if err != nil {
		return nil, storeErr("list session holds", err)
	}
	var docs []cartItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode session holds", err)
	}
	items := make([]models.CartItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.CartItem)
	}
	return items, nil
}

func (repo *MongoReservationRepo) CountActiveBySession(ctx context.Context, sessionID string) (int, error) {
	now := repo.clock.Now()
	n, err := repo.coll.CountDocuments(ctx, bson.M{
		"sessionId": sessionID,
		"status":    models.HoldHeld,
		"expiresAt": bson.M{"$gt": now},
	})
	if err != nil {
		return 0, storeErr("count session holds", err)
	}
	return int(n), nil
}

// MarkExpired transitions held -> expired. The filter carries the status and
// the expiry bound, so a hold that was confirmed, released, or is not yet due
// matches nothing and the call is a no-op. Confirmation always wins a race
// against expiry.
func (repo *MongoReservationRepo) MarkExpired(ctx context.Context, sessionID string, key models.UnitKey) error {
	return repo.locks.withLock(key.String(), func() error {
		now := repo.clock.Now()
		_, err := repo.coll.UpdateOne(ctx,
			bson.M{
				"sessionId": sessionID,
				"unitKey":   key.String(),
				"status":    models.HoldHeld,
				"expiresAt": bson.M{"$lte": now},
			},
			bson.M{"$set": bson.M{"status": models.HoldExpired}},
		)
		if err != nil {
			return storeErr("mark expired", err)
		}
		return nil
	})
}

func (repo *MongoReservationRepo) ConfirmSession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	live, err := repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var confirmed []models.CartItem
	for _, item := range live {
		err := repo.locks.withLock(item.Unit.String(), func() error {
			now := repo.clock.Now()
			res, err := repo.coll.UpdateOne(ctx,
				bson.M{
					"_id":       item.ID,
					"status":    models.HoldHeld,
					"expiresAt": bson.M{"$gt": now},
				},
				bson.M{"$set": bson.M{"status": models.HoldConfirmed}},
			)
			if err != nil {
				return storeErr("confirm hold", err)
			}
			if res.ModifiedCount == 1 {
				item.Status = models.HoldConfirmed
				confirmed = append(confirmed, item)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return confirmed, nil
}

func (repo *MongoReservationRepo) RevertConfirmation(ctx context.Context, sessionID string, graceTTL time.Duration) ([]models.CartItem, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"sessionId": sessionID, "status": models.HoldConfirmed})
	if err != nil {
		return nil, storeErr("find confirmed holds", err)
	}
	var docs []cartItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode confirmed holds", err)
	}

	var reverted []models.CartItem
	for _, doc := range docs {
		item := doc.CartItem
		err := repo.locks.withLock(item.Unit.String(), func() error {
			expiresAt := repo.clock.Now().Add(graceTTL)
			res, err := repo.coll.UpdateOne(ctx,
				bson.M{"_id": item.ID, "status": models.HoldConfirmed},
				bson.M{"$set": bson.M{"status": models.HoldHeld, "expiresAt": expiresAt}},
			)
			if err != nil {
				return storeErr("revert confirmation", err)
			}
			if res.ModifiedCount == 1 {
				item.Status = models.HoldHeld
				item.ExpiresAt = expiresAt
				reverted = append(reverted, item)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return reverted, nil
}

func (repo *MongoReservationRepo) DeleteConfirmed(ctx context.Context, sessionID string) error {
	_, err := repo.coll.DeleteMany(ctx, bson.M{"sessionId": sessionID, "status": models.HoldConfirmed})
	if err != nil {
		return storeErr("delete confirmed holds", err)
	}
	return nil
}
