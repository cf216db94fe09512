package handlers

import (
	"errors"
	"net/http"

	"medilink/middleware"
	"medilink/models"
	"medilink/services/ledger"
	"medilink/services/withdraw"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// actorOwner builds the wallet owner reference for the authenticated actor.
func actorOwner(c *gin.Context) models.OwnerRef {
	role, _ := c.Get("actorRole")
	kind := models.OwnerVendor
	switch role {
	case middleware.RolePartner:
		kind = models.OwnerPartner
	case middleware.RoleDoctor:
		kind = models.OwnerDoctor
	}
	return models.OwnerRef{Kind: kind, ID: middleware.ActorID(c)}
}

// WalletBalanceHandler returns the caller's current balance.
func (hb *HandlerBundle) WalletBalanceHandler(c *gin.Context) {
	logger := getLogger(c)
	owner := actorOwner(c)

	balance, err := hb.LedgerService.Balance(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			// No wallet row yet means nothing has been earned.
			c.JSON(http.StatusOK, gin.H{"owner": owner, "balance": 0})
			return
		}
		logger.Error("Failed to read balance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "balance": balance})
}

// RequestWithdrawHandler reserves part of the caller's balance into a PENDING
// withdraw.
func (hb *HandlerBundle) RequestWithdrawHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		Amount          float64 `json:"amount" binding:"required,gt=0"`
		PaymentMethodID string  `json:"payment_method_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	w, err := hb.WithdrawService.Request(c.Request.Context(), actorOwner(c), input.Amount, input.PaymentMethodID)
	if err != nil {
		switch {
		case errors.Is(err, withdraw.ErrMissingFields), errors.Is(err, ledger.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrWalletNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		case errors.Is(err, ledger.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": "Insufficient balance"})
		default:
			logger.Error("Failed to request withdraw", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request withdraw"})
		}
		return
	}
	c.JSON(http.StatusCreated, w)
}

// ResolveWithdrawHandler finalizes a PENDING withdraw as SUCCESS or REJECTED
// (admin only; rejection returns the reserved amount).
func (hb *HandlerBundle) ResolveWithdrawHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		Resolution string `json:"resolution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	w, err := hb.WithdrawService.Resolve(c.Request.Context(), c.Param("id"), input.Resolution)
	if err != nil {
		switch {
		case errors.Is(err, withdraw.ErrInvalidResolution):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, withdraw.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Withdraw not found"})
		case errors.Is(err, withdraw.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "Withdraw already resolved"})
		default:
			logger.Error("Failed to resolve withdraw", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve withdraw"})
		}
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListWithdrawsHandler returns the caller's withdraw history, newest first.
func (hb *HandlerBundle) ListWithdrawsHandler(c *gin.Context) {
	logger := getLogger(c)
	list, err := hb.WithdrawService.List(c.Request.Context(), actorOwner(c))
	if err != nil {
		logger.Error("Failed to list withdraws", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list withdraws"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdraws": list})
}
