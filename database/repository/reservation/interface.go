package reservationRepo

import (
	"context"
	"time"

	"tripcart/models"
)

// HoldRequest carries everything TryHold needs. AvailableQty is the fresh
// catalog availability resolved by the caller before any lock is taken; the
// store never talks to the catalog itself.
type HoldRequest struct {
	SessionID    string
	Unit         models.UnitKey
	Quantity     int
	UnitPrice    float64
	AvailableQty int
	TTL          time.Duration
}

// ReservationRepository is the durable hold table. Every mutator for a given
// unit key runs inside that key's exclusive critical section, so a
// check-then-write is atomic with respect to other calls on the same unit.
type ReservationRepository interface {
	// TryHold places a hold. A confirmed item blocks its unit exactly like a
	// live hold until the payment outcome resolves it. Binary units (hotel,
	// car): fails with an alreadyHeld error if another session claims the
	// unit; a repeated add by the session holding it returns the existing
	// hold unchanged. Event units: fails with insufficientAvailability when
	// the requested quantity plus all blocking quantities for the tier would
	// exceed AvailableQty.
	TryHold(ctx context.Context, req HoldRequest) (*models.CartItem, error)

	// Release removes a session's hold on a unit. Idempotent: releasing a
	// hold that does not exist is not an error.
	Release(ctx context.Context, sessionID string, key models.UnitKey) error

	// ListBySession returns the session's live holds.
	ListBySession(ctx context.Context, sessionID string) ([]models.CartItem, error)

	// CountActiveBySession returns how many live holds the session owns.
	CountActiveBySession(ctx context.Context, sessionID string) (int, error)

	// MarkExpired transitions a due hold to expired. No-op if the item was
	// confirmed or removed in the meantime, and never fires before the item's
	// expiry instant.
	MarkExpired(ctx context.Context, sessionID string, key models.UnitKey) error

	// ConfirmSession transitions all of the session's live holds to confirmed
	// and returns them. A hold that expires concurrently is skipped.
	ConfirmSession(ctx context.Context, sessionID string) ([]models.CartItem, error)

	// RevertConfirmation puts the session's confirmed items back on hold with
	// a fresh grace TTL and returns the reverted items. Confirmed items block
	// TryHold, so no competing claim can have slipped in while payment was
	// pending.
	RevertConfirmation(ctx context.Context, sessionID string, graceTTL time.Duration) ([]models.CartItem, error)

	// DeleteConfirmed erases the session's confirmed items once the payment
	// collaborator has taken them over.
	DeleteConfirmed(ctx context.Context, sessionID string) error
}

// BlockedQuantity sums the quantities claimed against the unit at the given
// instant: live holds plus confirmed items awaiting their payment outcome.
// Logically expired items do not count against availability.
func BlockedQuantity(items []models.CartItem, now time.Time) int {
	total := 0
	for _, it := range items {
		if it.Blocking(now) {
			total += it.Quantity
		}
	}
	return total
}

// BlockingClaim returns the first item in items still claiming its unit at
// the given instant.
func BlockingClaim(items []models.CartItem, now time.Time) (models.CartItem, bool) {
	for _, it := range items {
		if it.Blocking(now) {
			return it, true
		}
	}
	return models.CartItem{}, false
}
