package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripcart/models"
	"tripcart/services/cart"
	"tripcart/utils"
)

// PaymentHandler receives the payment collaborator's result callback.
type PaymentHandler struct {
	service cart.CartService
	logger  *zap.Logger
}

func NewPaymentHandler(service cart.CartService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: logger}
}

// PaymentCallback finalizes or rolls back a confirmed cart. The payload comes
// from the payment flow, not the shopper, so the session id travels in the
// body rather than the session header.
func (h *PaymentHandler) PaymentCallback(c *gin.Context) {
	var result models.PaymentResult
	if err := c.ShouldBindJSON(&result); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.service.OnPaymentResult(c.Request.Context(), result); err != nil {
		respondReservationError(c, err)
		return
	}

	h.logger.Info("payment result processed",
		zap.String("sessionId", result.SessionID),
		zap.Bool("success", result.Success))
	c.JSON(http.StatusOK, gin.H{"processed": true})
}
