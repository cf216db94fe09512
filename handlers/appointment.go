package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"medilink/middleware"
	"medilink/models"
	"medilink/services/appointment"
	"medilink/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookAppointmentHandler creates a lab/home-service appointment. Gateway
// bookings carry a payment proof which must verify before anything persists.
func (hb *HandlerBundle) BookAppointmentHandler(c *gin.Context) {
	logger := getLogger(c)
	var req appointment.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := hb.AppointmentService.Book(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, payment.ErrInvalidSignature):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to book appointment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book appointment"})
		}
		return
	}
	c.JSON(http.StatusCreated, models.ViewAsUser(appt))
}

// GetAppointmentHandler returns an appointment shaped for the caller's role.
func (hb *HandlerBundle) GetAppointmentHandler(c *gin.Context) {
	logger := getLogger(c)
	appt, err := hb.AppointmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
			return
		}
		logger.Error("Failed to fetch appointment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch appointment"})
		return
	}

	role, _ := c.Get("actorRole")
	switch role {
	case middleware.RolePartner:
		c.JSON(http.StatusOK, models.ViewAsPartner(appt))
	case middleware.RoleServiceBoy:
		c.JSON(http.StatusOK, models.ViewAsServiceBoy(appt))
	default:
		c.JSON(http.StatusOK, models.ViewAsUser(appt))
	}
}

// AcceptAppointmentHandler claims a SCHEDULED appointment for the calling
// service boy. Exactly one of any number of concurrent callers wins.
func (hb *HandlerBundle) AcceptAppointmentHandler(c *gin.Context) {
	logger := getLogger(c)
	id := c.Param("id")
	serviceBoyID := middleware.ActorID(c)

	appt, err := hb.AppointmentService.Accept(c.Request.Context(), id, serviceBoyID)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		case errors.Is(err, appointment.ErrNotScheduled):
			c.JSON(http.StatusConflict, gin.H{"error": "Appointment already taken"})
		default:
			logger.Error("Failed to accept appointment", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept appointment"})
		}
		return
	}
	c.JSON(http.StatusOK, models.ViewAsServiceBoy(appt))
}

// CompleteAppointmentHandler marks an appointment COMPLETED; only the
// accepting service boy may complete it.
func (hb *HandlerBundle) CompleteAppointmentHandler(c *gin.Context) {
	logger := getLogger(c)
	id := c.Param("id")
	serviceBoyID := middleware.ActorID(c)

	appt, err := hb.AppointmentService.Complete(c.Request.Context(), id, serviceBoyID)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		case errors.Is(err, appointment.ErrNotAcceptedByCaller):
			c.JSON(http.StatusConflict, gin.H{"error": "Appointment not accepted by caller"})
		default:
			logger.Error("Failed to complete appointment", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete appointment"})
		}
		return
	}
	c.JSON(http.StatusOK, models.ViewAsServiceBoy(appt))
}

// CancelAppointmentHandler cancels a non-terminal appointment.
func (hb *HandlerBundle) CancelAppointmentHandler(c *gin.Context) {
	logger := getLogger(c)
	id := c.Param("id")

	appt, err := hb.AppointmentService.Cancel(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		case errors.Is(err, appointment.ErrTerminalState):
			c.JSON(http.StatusConflict, gin.H{"error": "Appointment already completed or cancelled"})
		default:
			logger.Error("Failed to cancel appointment", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel appointment"})
		}
		return
	}
	c.JSON(http.StatusOK, models.ViewAsUser(appt))
}

// OverrideAppointmentStatusHandler forces any status (admin support
// correction).
func (hb *HandlerBundle) OverrideAppointmentStatusHandler(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := hb.AppointmentService.OverrideStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		case errors.Is(err, appointment.ErrUnknownStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to override status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to override status"})
		}
		return
	}
	c.JSON(http.StatusOK, models.ViewAsPartner(appt))
}

// MarkAppointmentPaidHandler flags a single appointment's cash as collected.
func (hb *HandlerBundle) MarkAppointmentPaidHandler(c *gin.Context) {
	logger := getLogger(c)
	appt, err := hb.AppointmentService.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		case errors.Is(err, appointment.ErrAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "Appointment already marked paid"})
		default:
			logger.Error("Failed to mark paid", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark paid"})
		}
		return
	}
	c.JSON(http.StatusOK, models.ViewAsPartner(appt))
}

// SettleServiceBoyCashHandler bulk-marks the calling service boy's completed,
// paid appointments as received by the partner.
func (hb *HandlerBundle) SettleServiceBoyCashHandler(c *gin.Context) {
	logger := getLogger(c)
	n, err := hb.AppointmentService.MarkReceivedByPartner(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		logger.Error("Failed to settle cash", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle cash"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settled": n})
}

// UploadReportHandler stores the report file through the storage collaborator
// and attaches its pointer to the completed appointment.
func (hb *HandlerBundle) UploadReportHandler(c *gin.Context) {
	logger := getLogger(c)
	id := c.Param("id")

	file, err := c.FormFile("report")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report file required"})
		return
	}
	tmpPath := filepath.Join(os.TempDir(), file.Filename)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		logger.Error("Failed to buffer report upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store report"})
		return
	}
	defer os.Remove(tmpPath)

	publicID, err := hb.StorageService.UploadFile(c.Request.Context(), tmpPath, "reports")
	if err != nil {
		logger.Error("Failed to upload report", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store report"})
		return
	}

	appt, err := hb.AppointmentService.AttachReport(c.Request.Context(), id, publicID)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		case errors.Is(err, appointment.ErrReportNotAllowed):
			c.JSON(http.StatusConflict, gin.H{"error": "Report upload not permitted"})
		default:
			logger.Error("Failed to attach report", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach report"})
		}
		return
	}
	c.JSON(http.StatusOK, models.ViewAsPartner(appt))
}

// DeleteAppointmentHandler hard-deletes an appointment (admin only).
func (hb *HandlerBundle) DeleteAppointmentHandler(c *gin.Context) {
	logger := getLogger(c)
	if err := hb.AppointmentService.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
			return
		}
		logger.Error("Failed to delete appointment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete appointment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
