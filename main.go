package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medilink/config"
	"medilink/cron"
	"medilink/database"
	appointmentRepo "medilink/database/repository/appointment"
	subscriptionRepo "medilink/database/repository/subscription"
	teleconsultRepo "medilink/database/repository/teleconsult"
	walletRepo "medilink/database/repository/wallet"
	withdrawRepo "medilink/database/repository/withdraw"
	"medilink/handlers"
	"medilink/middleware"
	"medilink/routes"
	"medilink/services/appointment"
	"medilink/services/ledger"
	"medilink/services/payment"
	"medilink/services/quota"
	"medilink/services/storage"
	"medilink/services/teleconsult"
	"medilink/services/withdraw"
	"medilink/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	storageService, err := storage.NewCloudinaryStorageService(
		config.AppConfig.CloudinaryCloudName,
		config.AppConfig.CloudinaryAPIKey,
		config.AppConfig.CloudinaryAPISecret,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()
	teleRepo := teleconsultRepo.NewMongoTeleconsultRepo()
	wltRepo := walletRepo.NewMongoWalletRepo()
	wdRepo := withdrawRepo.NewMongoWithdrawRepo()
	subRepo := subscriptionRepo.NewMongoSubscriptionRepo()

	// collaborators.
	verifier := payment.NewVerifier(config.AppConfig.RazorpayKeySecret)
	gateway := payment.NewRazorpayGateway(config.AppConfig.RazorpayKeyID, config.AppConfig.RazorpayKeySecret)

	// services.
	ledgerService := ledger.NewLedger(wltRepo, logger)
	appointmentService := appointment.NewService(apptRepo, verifier, logger)
	teleconsultService := teleconsult.NewService(
		teleRepo,
		ledgerService,
		gateway,
		verifier,
		utils.GetCacheClient(),
		logger,
		config.AppConfig.PlatformFeeRate,
		config.AppConfig.FeeTaxRate,
	)
	quotaService := quota.NewService(subRepo, verifier, logger)
	withdrawService := withdraw.NewService(wdRepo, ledgerService, logger)

	handlerBundle := &handlers.HandlerBundle{
		AppointmentService: appointmentService,
		TeleconsultService: teleconsultService,
		QuotaService:       quotaService,
		WithdrawService:    withdrawService,
		LedgerService:      ledgerService,
		StorageService:     storageService,
		PaymentGateway:     gateway,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Background subscription expiry sweep.
	cron.InitExpirySweepWorker(quotaService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
