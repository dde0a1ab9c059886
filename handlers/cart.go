package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripcart/models"
	"tripcart/services/cart"
	"tripcart/utils"
)

// CartHandler exposes the reservation engine over HTTP.
type CartHandler struct {
	service cart.CartService
	logger  *zap.Logger
}

func NewCartHandler(service cart.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{service: service, logger: logger}
}

// unitKeyInput is the composite unit identifier as the storefront sends it.
type unitKeyInput struct {
	ProductID   string `json:"productId"`
	ProductType string `json:"productType"`
	RoomID      string `json:"roomId"`
	CarTypeID   string `json:"carTypeId"`
	CarColorID  string `json:"carColorId"`
	EventTypeID string `json:"eventTypeId"`
}

func (in unitKeyInput) toUnitKey() models.UnitKey {
	return models.UnitKey{
		ProductID:   in.ProductID,
		ProductType: models.ProductType(in.ProductType),
		RoomID:      in.RoomID,
		CarTypeID:   in.CarTypeID,
		CarColorID:  in.CarColorID,
		EventTypeID: in.EventTypeID,
	}
}

// AddToCart places a hold on a unit for the caller's session.
func (h *CartHandler) AddToCart(c *gin.Context) {
	var input struct {
		unitKeyInput
		Quantity int `json:"quantity"`
		TTLSec   int `json:"ttlSec"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	item, err := h.service.AddToCart(c.Request.Context(), cart.AddToCartInput{
		SessionID: SessionID(c),
		Unit:      input.toUnitKey(),
		Quantity:  input.Quantity,
		TTL:       time.Duration(input.TTLSec) * time.Second,
	})
	if err != nil {
		respondReservationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// ListCart returns the session's live holds with remaining TTLs for the
// client-side countdown.
func (h *CartHandler) ListCart(c *gin.Context) {
	lines, err := h.service.ListCart(c.Request.Context(), SessionID(c))
	if err != nil {
		respondReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": lines})
}

// DeleteFromCart releases a hold. Always succeeds for well-formed input,
// even if the hold already expired or never existed.
func (h *CartHandler) DeleteFromCart(c *gin.Context) {
	var input unitKeyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.service.DeleteFromCart(c.Request.Context(), SessionID(c), input.toUnitKey()); err != nil {
		respondReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": true})
}

// ConfirmCart marks the session's holds confirmed and returns the payment
// handoff token.
func (h *CartHandler) ConfirmCart(c *gin.Context) {
	confirmation, err := h.service.ConfirmCart(c.Request.Context(), SessionID(c))
	if err != nil {
		respondReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"confirmation": confirmation})
}

// respondReservationError maps the reservation error taxonomy onto HTTP
// statuses. Contention outcomes are 409s, not server faults.
func respondReservationError(c *gin.Context, err error) {
	switch models.ErrorCode(err) {
	case models.CodeInvalidInput:
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
	case models.CodeNotFound:
		utils.JSONError(c, http.StatusNotFound, "unit not found", err.Error())
	case models.CodeAlreadyHeld, models.CodeInsufficientAvailability:
		utils.JSONError(c, http.StatusConflict, "unit unavailable", err.Error())
	case models.CodeStoreUnavailable:
		utils.JSONError(c, http.StatusServiceUnavailable, "store unavailable", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
