package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateOrderHandler registers a gateway order for the client to pay against.
// The returned order id is what the client later presents in its payment
// proof.
func (hb *HandlerBundle) CreateOrderHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		Amount   float64 `json:"amount" binding:"required,gt=0"`
		Currency string  `json:"currency"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.Currency == "" {
		input.Currency = "INR"
	}

	receipt := uuid.New().String()
	orderID, err := hb.PaymentGateway.CreateOrder(c.Request.Context(), input.Amount, input.Currency, receipt)
	if err != nil {
		logger.Error("Failed to create payment order", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create payment order"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order_id": orderID,
		"amount":   input.Amount,
		"currency": input.Currency,
		"receipt":  receipt,
	})
}
