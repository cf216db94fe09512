package handlers

import (
	"errors"
	"net/http"

	"medilink/middleware"
	"medilink/models"
	"medilink/services/payment"
	"medilink/services/quota"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PurchaseSubscriptionHandler buys or renews the calling partner's
// subscription after verifying the payment proof.
func (hb *HandlerBundle) PurchaseSubscriptionHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		SubscriptionID string        `json:"subscription_id" binding:"required"`
		Proof          payment.Proof `json:"payment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	purchase, err := hb.QuotaService.PurchaseOrRenew(c.Request.Context(), middleware.ActorID(c), input.SubscriptionID, input.Proof)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, payment.ErrInvalidSignature):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, quota.ErrSubscriptionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription plan not found"})
		default:
			logger.Error("Failed to purchase subscription", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purchase subscription"})
		}
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

// AddServiceBoyHandler consumes one unit of quota and registers the boy.
func (hb *HandlerBundle) AddServiceBoyHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		PurchaseID string `json:"purchase_id" binding:"required"`
		Name       string `json:"name" binding:"required"`
		Phone      string `json:"phone" binding:"required"`
		Zone       string `json:"zone"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	boy := models.ServiceBoy{Name: input.Name, Phone: input.Phone, Zone: input.Zone}
	created, err := hb.QuotaService.AddServiceBoy(c.Request.Context(), middleware.ActorID(c), input.PurchaseID, boy)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, quota.ErrPurchaseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription purchase not found"})
		case errors.Is(err, quota.ErrQuotaExhausted):
			c.JSON(http.StatusConflict, gin.H{"error": "Service boy quota exhausted"})
		default:
			logger.Error("Failed to add service boy", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add service boy"})
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListSubscriptionPurchasesHandler returns the partner's purchases after
// reconciling expiry.
func (hb *HandlerBundle) ListSubscriptionPurchasesHandler(c *gin.Context) {
	logger := getLogger(c)
	purchases, err := hb.QuotaService.ListPurchases(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		logger.Error("Failed to list subscription purchases", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list subscription purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}
