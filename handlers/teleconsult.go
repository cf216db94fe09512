package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"medilink/middleware"
	"medilink/services/payment"
	"medilink/services/teleconsult"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookTeleconsultHandler books a teleconsultation. Capture-on-book: the
// gateway payment proof must verify or nothing is persisted.
func (hb *HandlerBundle) BookTeleconsultHandler(c *gin.Context) {
	logger := getLogger(c)
	var req teleconsult.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.PatientID = middleware.ActorID(c)

	t, err := hb.TeleconsultService.Book(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, teleconsult.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, payment.ErrInvalidSignature):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, payment.ErrDuplicatePayment):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to book teleconsultation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book teleconsultation"})
		}
		return
	}
	c.JSON(http.StatusCreated, t)
}

// teleconsultError maps service errors onto HTTP responses shared by the
// transition handlers.
func teleconsultError(c *gin.Context, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, teleconsult.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Teleconsultation not found"})
	case errors.Is(err, teleconsult.ErrWrongState):
		c.JSON(http.StatusConflict, gin.H{"error": "Teleconsultation is not in the required state"})
	case errors.Is(err, teleconsult.ErrRefundFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Refund failed; please retry"})
	case errors.Is(err, teleconsult.ErrPayoutFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payout failed; completion rolled back"})
	case errors.Is(err, teleconsult.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Teleconsultation "+action+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action + " teleconsultation"})
	}
}

// GetTeleconsultHandler returns a teleconsultation by id.
func (hb *HandlerBundle) GetTeleconsultHandler(c *gin.Context) {
	t, err := hb.TeleconsultService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		teleconsultError(c, getLogger(c), err, "fetch")
		return
	}
	c.JSON(http.StatusOK, t)
}

// AcceptTeleconsultHandler lets the owning doctor accept a SCHEDULED
// consultation.
func (hb *HandlerBundle) AcceptTeleconsultHandler(c *gin.Context) {
	t, err := hb.TeleconsultService.Accept(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		teleconsultError(c, getLogger(c), err, "accept")
		return
	}
	c.JSON(http.StatusOK, t)
}

// StartTeleconsultHandler opens the video call for an ACCEPTED consultation.
func (hb *HandlerBundle) StartTeleconsultHandler(c *gin.Context) {
	t, err := hb.TeleconsultService.Start(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		teleconsultError(c, getLogger(c), err, "start")
		return
	}
	c.JSON(http.StatusOK, t)
}

// CompleteTeleconsultHandler completes a consultation and pays the doctor.
func (hb *HandlerBundle) CompleteTeleconsultHandler(c *gin.Context) {
	t, err := hb.TeleconsultService.Complete(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		teleconsultError(c, getLogger(c), err, "complete")
		return
	}
	c.JSON(http.StatusOK, t)
}

// CancelTeleconsultHandler is the patient's refund-bearing cancellation.
func (hb *HandlerBundle) CancelTeleconsultHandler(c *gin.Context) {
	t, err := hb.TeleconsultService.Cancel(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		teleconsultError(c, getLogger(c), err, "cancel")
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": t, "refund_id": t.RefundID})
}

// RejectTeleconsultHandler is the doctor's full-refund rejection.
func (hb *HandlerBundle) RejectTeleconsultHandler(c *gin.Context) {
	t, err := hb.TeleconsultService.Reject(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		teleconsultError(c, getLogger(c), err, "reject")
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": t, "refund_id": t.RefundID})
}

// RescheduleTeleconsultHandler moves a consultation to a new slot/date.
func (hb *HandlerBundle) RescheduleTeleconsultHandler(c *gin.Context) {
	var input struct {
		SlotID string `json:"slot_id" binding:"required"`
		Date   string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	t, err := hb.TeleconsultService.Reschedule(c.Request.Context(), c.Param("id"), middleware.ActorID(c), input.SlotID, input.Date)
	if err != nil {
		teleconsultError(c, getLogger(c), err, "reschedule")
		return
	}
	c.JSON(http.StatusOK, t)
}

// UploadPrescriptionHandler stores the prescription through the storage
// collaborator and attaches its URL to the completed consultation.
func (hb *HandlerBundle) UploadPrescriptionHandler(c *gin.Context) {
	logger := getLogger(c)
	id := c.Param("id")

	file, err := c.FormFile("prescription")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prescription file required"})
		return
	}
	tmpPath := filepath.Join(os.TempDir(), file.Filename)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		logger.Error("Failed to buffer prescription upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store prescription"})
		return
	}
	defer os.Remove(tmpPath)

	publicID, err := hb.StorageService.UploadFile(c.Request.Context(), tmpPath, "prescriptions")
	if err != nil {
		logger.Error("Failed to upload prescription", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store prescription"})
		return
	}

	t, err := hb.TeleconsultService.AttachPrescription(c.Request.Context(), id, middleware.ActorID(c), publicID)
	if err != nil {
		teleconsultError(c, logger, err, "attach prescription to")
		return
	}
	c.JSON(http.StatusOK, t)
}
