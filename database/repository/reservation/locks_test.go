package reservationRepo

import (
	"sync"
	"testing"
	"time"

	"tripcart/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitLockRegistry_SerializesPerKey(t *testing.T) {
	registry := newUnitLockRegistry()

	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := registry.withLock("hotel:h1:r1", func() error {
				// A data race here would be caught by -race; the check below
				// catches lost updates.
				v := counter
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestUnitLockRegistry_ReusesLockPerKey(t *testing.T) {
	registry := newUnitLockRegistry()
	assert.Same(t, registry.get("a"), registry.get("a"))
	assert.NotSame(t, registry.get("a"), registry.get("b"))
}

func TestBlockedQuantity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tier := models.UnitKey{ProductID: "e1", ProductType: models.ProductEvent, EventTypeID: "ga"}

	items := []models.CartItem{
		{Unit: tier, Quantity: 3, Status: models.HoldHeld, ExpiresAt: now.Add(time.Minute)},
		{Unit: tier, Quantity: 2, Status: models.HoldHeld, ExpiresAt: now.Add(-time.Second)},
		{Unit: tier, Quantity: 4, Status: models.HoldExpired, ExpiresAt: now.Add(time.Minute)},
		{Unit: tier, Quantity: 5, Status: models.HoldConfirmed, ExpiresAt: now.Add(-time.Minute)},
	}

	// The live hold counts, and so does the payment-pending confirmed item
	// even past its original expiry instant. Expired items do not.
	assert.Equal(t, 8, BlockedQuantity(items, now))
}

func TestBlockingClaim(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	room := models.UnitKey{ProductID: "h1", ProductType: models.ProductHotel, RoomID: "r1"}

	expired := models.CartItem{Unit: room, Status: models.HoldHeld, ExpiresAt: now}
	_, ok := BlockingClaim([]models.CartItem{expired}, now)
	assert.False(t, ok, "a hold expiring exactly now is no longer a claim")

	live := models.CartItem{ID: "x", Unit: room, Status: models.HoldHeld, ExpiresAt: now.Add(time.Second)}
	found, ok := BlockingClaim([]models.CartItem{expired, live}, now)
	require.True(t, ok)
	assert.Equal(t, "x", found.ID)

	// A confirmed item keeps the unit claimed regardless of its expiry.
	confirmed := models.CartItem{ID: "c", Unit: room, Status: models.HoldConfirmed, ExpiresAt: now.Add(-time.Hour)}
	found, ok = BlockingClaim([]models.CartItem{expired, confirmed}, now)
	require.True(t, ok)
	assert.Equal(t, "c", found.ID)
}
