package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	reservationRepo "tripcart/database/repository/reservation"
	"tripcart/models"
	"tripcart/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stepClock is a mutable clock shared by the service and the fake store.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeStore implements the reservation store contract in memory.
type fakeStore struct {
	mu    sync.Mutex
	clock utils.Clock
	items map[string]models.CartItem
}

func newFakeStore(clock utils.Clock) *fakeStore {
	return &fakeStore{clock: clock, items: make(map[string]models.CartItem)}
}

func (s *fakeStore) claimsForUnit(key models.UnitKey) []models.CartItem {
	var claims []models.CartItem
	for _, it := range s.items {
		if it.Unit.String() == key.String() &&
			(it.Status == models.HoldHeld || it.Status == models.HoldConfirmed) {
			claims = append(claims, it)
		}
	}
	return claims
}

func (s *fakeStore) TryHold(ctx context.Context, req reservationRepo.HoldRequest) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	claims := s.claimsForUnit(req.Unit)

	if req.Unit.ProductType.Binary() {
		if existing, ok := reservationRepo.BlockingClaim(claims, now); ok {
			if existing.SessionID == req.SessionID && existing.Status == models.HoldHeld {
				return &existing, nil
			}
			return nil, models.NewAlreadyHeldError("unit already claimed")
		}
		if req.AvailableQty < 1 {
			return nil, models.NewAlreadyHeldError("unit not available")
		}
	} else if req.Quantity+reservationRepo.BlockedQuantity(claims, now) > req.AvailableQty {
		return nil, models.NewInsufficientAvailabilityError("tier exhausted")
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
	s.items[item.ID] = item
	return &item, nil
}

func (s *fakeStore) Release(ctx context.Context, sessionID string, key models.UnitKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.SessionID == sessionID && it.Unit.String() == key.String() && it.Status == models.HoldHeld {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *fakeStore) ListBySession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var live []models.CartItem
	for _, it := range s.items {
		if it.SessionID == sessionID && it.ActiveAt(now) {
			live = append(live, it)
		}
	}
	return live, nil
}

func (s *fakeStore) CountActiveBySession(ctx context.Context, sessionID string) (int, error) {
	live, _ := s.ListBySession(ctx, sessionID)
	return len(live), nil
}

func (s *fakeStore) MarkExpired(ctx context.Context, sessionID string, key models.UnitKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	for id, it := range s.items {
		if it.SessionID == sessionID && it.Unit.String() == key.String() &&
			it.Status == models.HoldHeld && !now.Before(it.ExpiresAt) {
			it.Status = models.HoldExpired
			s.items[id] = it
		}
	}
	return nil
}

func (s *fakeStore) ConfirmSession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var confirmed []models.CartItem
	for id, it := range s.items {
		if it.SessionID == sessionID && it.ActiveAt(now) {
			it.Status = models.HoldConfirmed
			s.items[id] = it
			confirmed = append(confirmed, it)
		}
	}
	return confirmed, nil
}

func (s *fakeStore) RevertConfirmation(ctx context.Context, sessionID string, graceTTL time.Duration) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var reverted []models.CartItem
	for id, it := range s.items {
		if it.SessionID == sessionID && it.Status == models.HoldConfirmed {
			it.Status = models.HoldHeld
			it.ExpiresAt = now.Add(graceTTL)
			s.items[id] = it
			reverted = append(reverted, it)
		}
	}
	return reverted, nil
}

func (s *fakeStore) DeleteConfirmed(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.SessionID == sessionID && it.Status == models.HoldConfirmed {
			delete(s.items, id)
		}
	}
	return nil
}

type fakeRegistry struct {
	units map[string]models.Unit
}

func (r *fakeRegistry) Lookup(ctx context.Context, key models.UnitKey) (models.Unit, error) {
	unit, ok := r.units[key.String()]
	if !ok {
		return models.Unit{}, models.NewNotFoundError("unit not found")
	}
	return unit, nil
}

type fakeExpiryIndex struct {
	mu      sync.Mutex
	entries map[string]models.ExpiryEntry
}

func newFakeExpiryIndex() *fakeExpiryIndex {
	return &fakeExpiryIndex{entries: make(map[string]models.ExpiryEntry)}
}

func (f *fakeExpiryIndex) Add(ctx context.Context, entry models.ExpiryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.SessionID+"|"+entry.Unit.String()] = entry
	return nil
}

func (f *fakeExpiryIndex) Remove(ctx context.Context, sessionID string, key models.UnitKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, sessionID+"|"+key.String())
	return nil
}

func (f *fakeExpiryIndex) Due(ctx context.Context, now time.Time, limit int64) ([]models.ExpiryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []models.ExpiryEntry
	for _, e := range f.entries {
		if !e.ExpiresAt.After(now) {
			due = append(due, e)
		}
	}
	return due, nil
}

func (f *fakeExpiryIndex) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []models.ExpiryEntry
}

func (f *fakeScheduler) ScheduleExpiry(ctx context.Context, entry models.ExpiryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, entry)
	return nil
}

func roomKey(productID, roomID string) models.UnitKey {
	return models.UnitKey{ProductID: productID, ProductType: models.ProductHotel, RoomID: roomID}
}

func tierKey(productID, tierID string) models.UnitKey {
	return models.UnitKey{ProductID: productID, ProductType: models.ProductEvent, EventTypeID: tierID}
}

func newTestService(clock utils.Clock, units map[string]models.Unit) (*DefaultCartService, *fakeStore, *fakeExpiryIndex) {
	store := newFakeStore(clock)
	index := newFakeExpiryIndex()
	svc := &DefaultCartService{
		Registry:           &fakeRegistry{units: units},
		Store:              store,
		Expiry:             index,
		Scheduler:          &fakeScheduler{},
		Payments:           OpaqueTokenHandoff{},
		Clock:              clock,
		Logger:             zap.NewNop(),
		DefaultTTL:         10 * time.Minute,
		MaxTTL:             30 * time.Minute,
		PaymentGraceTTL:    5 * time.Minute,
		MaxHoldsPerSession: 5,
		Currency:           "usd",
	}
	return svc, store, index
}

func TestAddToCart_BinaryContention(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r1 := roomKey("hotel-1", "r1")
	svc, _, index := newTestService(clock, map[string]models.Unit{
		r1.String(): {Key: r1, BasePrice: 150, AvailableQty: 1},
	})

	ctx := context.Background()
	s1 := uuid.New().String()
	s2 := uuid.New().String()

	item, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1, TTL: 600 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(600*time.Second), item.ExpiresAt)
	assert.Equal(t, 150.0, item.UnitPriceSnapshot)
	assert.Equal(t, 1, index.size())

	// Second session racing for the same room loses.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: r1})
	require.Error(t, err)
	assert.True(t, models.IsAlreadyHeld(err))

	// Re-adding by the holder is idempotent.
	again, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1})
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)

	// After an explicit release, the unit is free again.
	require.NoError(t, svc.DeleteFromCart(ctx, s1, r1))
	assert.Equal(t, 0, index.size())

	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: r1})
	require.NoError(t, err)
}

func TestAddToCart_EventQuantities(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	t1 := tierKey("event-1", "t1")
	svc, _, _ := newTestService(clock, map[string]models.Unit{
		t1.String(): {Key: t1, BasePrice: 40, AvailableQty: 5},
	})

	ctx := context.Background()
	s1 := uuid.New().String()
	s2 := uuid.New().String()

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: t1, Quantity: 3})
	require.NoError(t, err)

	// 3 + 3 > 5: rejected.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: t1, Quantity: 3})
	require.Error(t, err)
	assert.True(t, models.IsInsufficientAvailability(err))

	// 3 + 2 = 5: exactly at the limit, accepted.
	item, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: t1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 80.0, LineTotal(*item))
}

func TestAddToCart_Validation(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r1 := roomKey("hotel-1", "r1")
	svc, _, _ := newTestService(clock, map[string]models.Unit{
		r1.String(): {Key: r1, BasePrice: 150, AvailableQty: 1},
	})
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: "not-a-uuid", Unit: r1})
	assert.True(t, models.IsInvalidInput(err))

	s1 := uuid.New().String()

	_, err = svc.AddToCart(ctx, AddToCartInput{
		SessionID: s1,
		Unit:      models.UnitKey{ProductID: "x", ProductType: "boat"},
	})
	assert.True(t, models.IsInvalidInput(err))

	// Missing sub-identifier for the type.
	_, err = svc.AddToCart(ctx, AddToCartInput{
		SessionID: s1,
		Unit:      models.UnitKey{ProductID: "hotel-1", ProductType: models.ProductHotel},
	})
	assert.True(t, models.IsInvalidInput(err))

	// TTL above the configured maximum is rejected, not clamped.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1, TTL: time.Hour})
	assert.True(t, models.IsInvalidInput(err))

	// Unknown unit surfaces the catalog's notFound.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: roomKey("hotel-9", "r9")})
	assert.True(t, models.IsNotFound(err))
}

func TestAddToCart_SessionHoldCap(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	units := make(map[string]models.Unit)
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5", "r6"} {
		k := roomKey("hotel-1", id)
		units[k.String()] = models.Unit{Key: k, BasePrice: 100, AvailableQty: 1}
	}
	svc, _, _ := newTestService(clock, units)

	ctx := context.Background()
	s1 := uuid.New().String()
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
		_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: roomKey("hotel-1", id)})
		require.NoError(t, err)
	}

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: roomKey("hotel-1", "r6")})
	assert.True(t, models.IsInvalidInput(err))
}

func TestListCart_LogicalExpiry(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r1 := roomKey("hotel-1", "r1")
	svc, _, _ := newTestService(clock, map[string]models.Unit{
		r1.String(): {Key: r1, BasePrice: 150, AvailableQty: 1},
	})

	ctx := context.Background()
	s1 := uuid.New().String()
	s2 := uuid.New().String()

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1, TTL: time.Second})
	require.NoError(t, err)

	lines, err := svc.ListCart(ctx, s1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].RemainingTTLSec)

	// Past expiry the hold is logically gone even though no reaper ran.
	clock.Advance(1500 * time.Millisecond)

	lines, err = svc.ListCart(ctx, s1)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// And the unit is immediately claimable by another session.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: r1})
	require.NoError(t, err)
}

func TestDeleteFromCart_Idempotent(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r1 := roomKey("hotel-1", "r1")
	svc, _, _ := newTestService(clock, map[string]models.Unit{
		r1.String(): {Key: r1, BasePrice: 150, AvailableQty: 1},
	})

	ctx := context.Background()
	s1 := uuid.New().String()

	// Deleting a never-held unit is fine.
	require.NoError(t, svc.DeleteFromCart(ctx, s1, r1))

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteFromCart(ctx, s1, r1))
	require.NoError(t, svc.DeleteFromCart(ctx, s1, r1))
}

func TestConfirmCart_AndPaymentResult(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r1 := roomKey("hotel-1", "r1")
	t1 := tierKey("event-1", "t1")
	svc, store, index := newTestService(clock, map[string]models.Unit{
		r1.String(): {Key: r1, BasePrice: 150, AvailableQty: 1},
		t1.String(): {Key: t1, BasePrice: 40, AvailableQty: 10},
	})

	ctx := context.Background()
	s1 := uuid.New().String()

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: t1, Quantity: 2})
	require.NoError(t, err)

	confirmation, err := svc.ConfirmCart(ctx, s1)
	require.NoError(t, err)
	assert.NotEmpty(t, confirmation.HandoffToken)
	assert.Equal(t, 230.0, confirmation.Total)
	assert.Len(t, confirmation.Items, 2)
	// Confirmed holds no longer carry expiry entries.
	assert.Equal(t, 0, index.size())

	// Confirming again finds nothing held.
	_, err = svc.ConfirmCart(ctx, s1)
	assert.True(t, models.IsInvalidInput(err))

	// Failed payment rolls the items back onto hold with the grace TTL.
	require.NoError(t, svc.OnPaymentResult(ctx, models.PaymentResult{SessionID: s1, Success: false}))
	lines, err := svc.ListCart(ctx, s1)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, clock.Now().Add(5*time.Minute), line.ExpiresAt)
	}
	assert.Equal(t, 2, index.size())

	// Second confirmation plus successful payment hands the items off.
	_, err = svc.ConfirmCart(ctx, s1)
	require.NoError(t, err)
	require.NoError(t, svc.OnPaymentResult(ctx, models.PaymentResult{SessionID: s1, Success: true}))

	lines, err = svc.ListCart(ctx, s1)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Empty(t, store.items)
}

func TestAddToCart_PaymentPendingBlocksBinaryUnit(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r1 := roomKey("hotel-1", "r1")
	svc, store, _ := newTestService(clock, map[string]models.Unit{
		r1.String(): {Key: r1, BasePrice: 150, AvailableQty: 1},
	})

	ctx := context.Background()
	s1 := uuid.New().String()
	s2 := uuid.New().String()

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1})
	require.NoError(t, err)
	_, err = svc.ConfirmCart(ctx, s1)
	require.NoError(t, err)

	// While s1's payment outcome is pending the unit stays claimed.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: r1})
	require.Error(t, err)
	assert.True(t, models.IsAlreadyHeld(err))

	// Re-adding by the confirming session is no longer idempotent either.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1})
	assert.True(t, models.IsAlreadyHeld(err))

	// A failed payment reverts to exactly one live hold, never a second one.
	require.NoError(t, svc.OnPaymentResult(ctx, models.PaymentResult{SessionID: s1, Success: false}))
	held := 0
	for _, it := range store.items {
		if it.Unit.String() == r1.String() && it.Status == models.HoldHeld {
			held++
		}
	}
	assert.Equal(t, 1, held)

	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: r1})
	assert.True(t, models.IsAlreadyHeld(err))
}

func TestAddToCart_PaymentPendingCountsAgainstTier(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	t1 := tierKey("event-1", "t1")
	svc, store, _ := newTestService(clock, map[string]models.Unit{
		t1.String(): {Key: t1, BasePrice: 40, AvailableQty: 5},
	})

	ctx := context.Background()
	s1 := uuid.New().String()
	s2 := uuid.New().String()

	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: t1, Quantity: 3})
	require.NoError(t, err)
	_, err = svc.ConfirmCart(ctx, s1)
	require.NoError(t, err)

	// s1's 3 confirmed tickets still count against the tier.
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: t1, Quantity: 3})
	require.Error(t, err)
	assert.True(t, models.IsInsufficientAvailability(err))

	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: t1, Quantity: 2})
	require.NoError(t, err)

	// After a failed payment the tier never exceeds its capacity.
	require.NoError(t, svc.OnPaymentResult(ctx, models.PaymentResult{SessionID: s1, Success: false}))
	claimed := 0
	for _, it := range store.items {
		if it.Unit.String() == t1.String() &&
			(it.Status == models.HoldHeld || it.Status == models.HoldConfirmed) {
			claimed += it.Quantity
		}
	}
	assert.Equal(t, 5, claimed)

	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: t1, Quantity: 1})
	assert.True(t, models.IsInsufficientAvailability(err))
}

func TestConfirmVersusExpiry_ExactlyOneWins(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	r1 := roomKey("hotel-1", "r1")
	svc, store, _ := newTestService(clock, map[string]models.Unit{
		r1.String(): {Key: r1, BasePrice: 150, AvailableQty: 1},
	})

	ctx := context.Background()

	// Confirmation lands just under the TTL: the reaper's later eviction
	// must be a no-op.
	s1 := uuid.New().String()
	_, err := svc.AddToCart(ctx, AddToCartInput{SessionID: s1, Unit: r1, TTL: 600 * time.Second})
	require.NoError(t, err)

	clock.Advance(599*time.Second + 900*time.Millisecond)
	_, err = svc.ConfirmCart(ctx, s1)
	require.NoError(t, err)

	clock.Advance(100 * time.Millisecond)
	require.NoError(t, store.MarkExpired(ctx, s1, r1))

	statuses := map[models.HoldStatus]int{}
	for _, it := range store.items {
		statuses[it.Status]++
	}
	assert.Equal(t, map[models.HoldStatus]int{models.HoldConfirmed: 1}, statuses)

	// The reverse order: once expiry won, confirmation finds nothing.
	s2 := uuid.New().String()
	require.NoError(t, svc.OnPaymentResult(ctx, models.PaymentResult{SessionID: s1, Success: true}))
	_, err = svc.AddToCart(ctx, AddToCartInput{SessionID: s2, Unit: r1, TTL: time.Second})
	require.NoError(t, err)

	clock.Advance(time.Second)
	require.NoError(t, store.MarkExpired(ctx, s2, r1))
	_, err = svc.ConfirmCart(ctx, s2)
	assert.True(t, models.IsInvalidInput(err))
}
