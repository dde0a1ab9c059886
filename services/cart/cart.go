// File: services/cart/cart.go
package cart

import (
	"context"
	"fmt"

	reservationRepo "tripcart/database/repository/reservation"
	"tripcart/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCart validates the request, resolves the unit through the registry
// (before any lock is taken), snapshots the price, and places the hold. On
// success the hold is registered with the expiry index and an eviction task
// is scheduled for its expiry instant.
func (s *DefaultCartService) AddToCart(ctx context.Context, in AddToCartInput) (*models.CartItem, error) {
	if err := validateSessionID(in.SessionID); err != nil {
		return nil, err
	}
	if err := in.Unit.Validate(); err != nil {
		return nil, models.NewInvalidInputError(err.Error())
	}

	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return nil, models.NewInvalidInputError("quantity must be at least 1")
	}
	if in.Unit.ProductType.Binary() && qty != 1 {
		return nil, models.NewInvalidInputError(
			fmt.Sprintf("%s units are held one at a time", in.Unit.ProductType))
	}

	ttl := in.TTL
	if ttl == 0 {
		ttl = s.DefaultTTL
	}
	if ttl < 0 {
		return nil, models.NewInvalidInputError("ttl must be positive")
	}
	if ttl > s.MaxTTL {
		return nil, models.NewInvalidInputError(
			fmt.Sprintf("ttl exceeds the maximum of %s", s.MaxTTL))
	}

	active, err := s.Store.CountActiveBySession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if active >= s.MaxHoldsPerSession {
		return nil, models.NewInvalidInputError(
			fmt.Sprintf("session already holds %d items", active))
	}

	unit, err := s.Registry.Lookup(ctx, in.Unit)
	if err != nil {
		return nil, err
	}

	item, err := s.Store.TryHold(ctx, reservationRepo.HoldRequest{
		SessionID:    in.SessionID,
		Unit:         in.Unit,
		Quantity:     qty,
		UnitPrice:    unit.BasePrice,
		AvailableQty: unit.AvailableQty,
		TTL:          ttl,
	})
	if err != nil {
		return nil, err
	}

	entry := models.ExpiryEntry{SessionID: item.SessionID, Unit: item.Unit, ExpiresAt: item.ExpiresAt}
	s.registerExpiry(ctx, entry)

	s.Logger.Info("hold placed",
		zap.String("sessionId", item.SessionID),
		zap.String("unit", item.Unit.String()),
		zap.Int("quantity", item.Quantity),
		zap.Time("expiresAt", item.ExpiresAt))
	return item, nil
}

// ListCart returns the session's live holds annotated with remaining TTL and
// display totals derived from the add-time price snapshot. A hold past its
// expiry is never returned, whether or not the reaper has swept it yet.
func (s *DefaultCartService) ListCart(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	items, err := s.Store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	lines := make([]models.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.CartLine{
			CartItem:        item,
			RemainingTTLSec: int(item.ExpiresAt.Sub(now).Seconds()),
			LineTotal:       LineTotal(item),
		})
	}
	return lines, nil
}

// DeleteFromCart releases the session's hold on the unit. Idempotent by
// contract: deleting an expired or never-held item succeeds, so duplicate or
// late client requests are harmless.
func (s *DefaultCartService) DeleteFromCart(ctx context.Context, sessionID string, key models.UnitKey) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return models.NewInvalidInputError(err.Error())
	}

	if err := s.Store.Release(ctx, sessionID, key); err != nil {
		return err
	}
	s.removeExpiry(ctx, sessionID, key)

	s.Logger.Info("hold released",
		zap.String("sessionId", sessionID),
		zap.String("unit", key.String()))
	return nil
}

// ConfirmCart marks the session's live holds confirmed, cancels their expiry
// entries, and returns the handoff token for the payment flow.
func (s *DefaultCartService) ConfirmCart(ctx context.Context, sessionID string) (*models.CartConfirmation, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	confirmed, err := s.Store.ConfirmSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(confirmed) == 0 {
		return nil, models.NewInvalidInputError("cart is empty")
	}

	for _, item := range confirmed {
		s.removeExpiry(ctx, sessionID, item.Unit)
	}

	total := CartTotal(confirmed)
	token, err := s.Payments.CreateHandoff(ctx, sessionID, total, s.Currency)
	if err != nil {
		return nil, fmt.Errorf("payment handoff failed: %w", err)
	}

	items := make([]models.ConfirmedItem, 0, len(confirmed))
	for _, item := range confirmed {
		items = append(items, models.ConfirmedItem{
			SessionID: item.SessionID,
			Unit:      item.Unit,
			Quantity:  item.Quantity,
			LineTotal: LineTotal(item),
		})
	}

	s.Logger.Info("cart confirmed",
		zap.String("sessionId", sessionID),
		zap.Int("items", len(items)),
		zap.Float64("total", total))
	return &models.CartConfirmation{
		SessionID:    sessionID,
		HandoffToken: token,
		Total:        total,
		Currency:     s.Currency,
		Items:        items,
	}, nil
}

// OnPaymentResult finalizes or rolls back a confirmation. Success erases the
// confirmed items: the booking now lives with the payment collaborator.
// Failure puts them back on hold with a grace TTL so the shopper can retry
// without losing the unit.
func (s *DefaultCartService) OnPaymentResult(ctx context.Context, result models.PaymentResult) error {
	if err := validateSessionID(result.SessionID); err != nil {
		return err
	}

	if result.Success {
		if err := s.Store.DeleteConfirmed(ctx, result.SessionID); err != nil {
			return err
		}
		s.Logger.Info("payment succeeded, confirmed items handed off",
			zap.String("sessionId", result.SessionID))
		return nil
	}

	reverted, err := s.Store.RevertConfirmation(ctx, result.SessionID, s.PaymentGraceTTL)
	if err != nil {
		return err
	}
	for _, item := range reverted {
		s.registerExpiry(ctx, models.ExpiryEntry{
			SessionID: item.SessionID,
			Unit:      item.Unit,
			ExpiresAt: item.ExpiresAt,
		})
	}
	s.Logger.Info("payment failed, confirmation rolled back",
		zap.String("sessionId", result.SessionID),
		zap.Int("reverted", len(reverted)))
	return nil
}

// registerExpiry records the hold in the expiry index and schedules its
// eviction task. Neither failure invalidates the hold itself: reads apply
// logical expiry and the sweep picks up whatever the index still knows.
func (s *DefaultCartService) registerExpiry(ctx context.Context, entry models.ExpiryEntry) {
	if err := s.Expiry.Add(ctx, entry); err != nil {
		s.Logger.Warn("failed to index hold expiry",
			zap.String("unit", entry.Unit.String()), zap.Error(err))
	}
	if err := s.Scheduler.ScheduleExpiry(ctx, entry); err != nil {
		s.Logger.Warn("failed to schedule expiry task",
			zap.String("unit", entry.Unit.String()), zap.Error(err))
	}
}

func (s *DefaultCartService) removeExpiry(ctx context.Context, sessionID string, key models.UnitKey) {
	if err := s.Expiry.Remove(ctx, sessionID, key); err != nil {
		s.Logger.Warn("failed to remove expiry entry",
			zap.String("unit", key.String()), zap.Error(err))
	}
}

func validateSessionID(sessionID string) error {
	if sessionID == "" {
		return models.NewInvalidInputError("sessionId is required")
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return models.NewInvalidInputError("sessionId must be a UUID")
	}
	return nil
}
