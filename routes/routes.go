package routes

import (
	"net/http"
	"time"

	"medilink/handlers"
	"medilink/middleware"
	"medilink/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAppointmentRoutes registers lab/home-service appointment endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.BookAppointmentHandler)
		api.GET("/:id", hb.GetAppointmentHandler)
		api.PUT("/:id/cancel", hb.CancelAppointmentHandler)

		boys := api.Group("")
		boys.Use(middleware.JWTAuthMiddleware(middleware.RoleServiceBoy))
		boys.PUT("/:id/accept", hb.AcceptAppointmentHandler)
		boys.PUT("/:id/complete", hb.CompleteAppointmentHandler)
		boys.PUT("/settle-cash", hb.SettleServiceBoyCashHandler)

		partners := api.Group("")
		partners.Use(middleware.JWTAuthMiddleware(middleware.RolePartner, middleware.RoleAdmin))
		partners.PUT("/:id/paid", hb.MarkAppointmentPaidHandler)
		partners.POST("/:id/report", hb.UploadReportHandler)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthMiddleware(middleware.RoleAdmin), middleware.OverrideGuardMiddleware())
		admin.PUT("/:id/status", hb.OverrideAppointmentStatusHandler)
		admin.DELETE("/:id", hb.DeleteAppointmentHandler)
	}
}

// RegisterTeleconsultRoutes registers teleconsultation endpoints.
func RegisterTeleconsultRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/teleconsults")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/:id", hb.GetTeleconsultHandler)

		patients := api.Group("")
		patients.Use(middleware.JWTAuthMiddleware(middleware.RoleUser))
		patients.POST("", hb.BookTeleconsultHandler)
		patients.PUT("/:id/cancel", hb.CancelTeleconsultHandler)

		doctors := api.Group("")
		doctors.Use(middleware.JWTAuthMiddleware(middleware.RoleDoctor))
		doctors.PUT("/:id/accept", hb.AcceptTeleconsultHandler)
		doctors.PUT("/:id/start", hb.StartTeleconsultHandler)
		doctors.PUT("/:id/complete", hb.CompleteTeleconsultHandler)
		doctors.PUT("/:id/reject", hb.RejectTeleconsultHandler)
		doctors.PUT("/:id/reschedule", hb.RescheduleTeleconsultHandler)
		doctors.POST("/:id/prescription", hb.UploadPrescriptionHandler)
	}
}

// RegisterSubscriptionRoutes registers partner subscription and quota
// endpoints.
func RegisterSubscriptionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/subscriptions")
	{
		api.Use(middleware.JWTAuthMiddleware(middleware.RolePartner))
		api.POST("/purchase", hb.PurchaseSubscriptionHandler)
		api.POST("/service-boys", hb.AddServiceBoyHandler)
		api.GET("/purchases", hb.ListSubscriptionPurchasesHandler)
	}
}

// RegisterWalletRoutes registers balance, withdraw, and payment-order
// endpoints.
func RegisterWalletRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/wallet")
	{
		api.Use(middleware.JWTAuthMiddleware(middleware.RolePartner, middleware.RoleDoctor))
		api.GET("/balance", hb.WalletBalanceHandler)
		api.POST("/withdraws", hb.RequestWithdrawHandler)
		api.GET("/withdraws", hb.ListWithdrawsHandler)
	}

	admin := r.Group("/api/wallet")
	{
		admin.Use(middleware.JWTAuthMiddleware(middleware.RoleAdmin))
		admin.PUT("/withdraws/:id/resolve", hb.ResolveWithdrawHandler)
	}

	pay := r.Group("/api/payments")
	{
		pay.Use(middleware.JWTAuthMiddleware())
		pay.POST("/orders", hb.CreateOrderHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", utils.HealthHandler)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Medilink"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAppointmentRoutes(r, hb)
	RegisterTeleconsultRoutes(r, hb)
	RegisterSubscriptionRoutes(r, hb)
	RegisterWalletRoutes(r, hb)
}
