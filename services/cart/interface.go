package cart

import (
	"context"
	"time"

	reservationRepo "tripcart/database/repository/reservation"
	"tripcart/models"
	"tripcart/services/catalog"
	"tripcart/utils"

	"go.uber.org/zap"
)

// AddToCartInput is one add request. Quantity defaults to 1 and TTL to the
// configured default when left zero.
type AddToCartInput struct {
	SessionID string
	Unit      models.UnitKey
	Quantity  int
	TTL       time.Duration
}

// CartService is the public face of the reservation engine.
type CartService interface {
	AddToCart(ctx context.Context, in AddToCartInput) (*models.CartItem, error)
	ListCart(ctx context.Context, sessionID string) ([]models.CartLine, error)
	DeleteFromCart(ctx context.Context, sessionID string, key models.UnitKey) error
	ConfirmCart(ctx context.Context, sessionID string) (*models.CartConfirmation, error)
	OnPaymentResult(ctx context.Context, result models.PaymentResult) error
}

// ExpiryScheduler enqueues the task that evicts a hold at its expiry instant.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, entry models.ExpiryEntry) error
}

// DefaultCartService implements CartService.
type DefaultCartService struct {
	Registry  catalog.UnitRegistry
	Store     reservationRepo.ReservationRepository
	Expiry    reservationRepo.ExpiryIndex
	Scheduler ExpiryScheduler
	Payments  PaymentHandoff
	Clock     utils.Clock
	Logger    *zap.Logger

	DefaultTTL         time.Duration
	MaxTTL             time.Duration
	PaymentGraceTTL    time.Duration
	MaxHoldsPerSession int
	Currency           string
}
