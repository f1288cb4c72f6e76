package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psd2hub/consent-cms/internal/authorisation"
	"github.com/psd2hub/consent-cms/internal/consent"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/payment"
	"github.com/psd2hub/consent-cms/internal/profile"
	"github.com/psd2hub/consent-cms/internal/router"
	"github.com/psd2hub/consent-cms/internal/system/config"
	"github.com/psd2hub/consent-cms/internal/system/database"
	"github.com/psd2hub/consent-cms/internal/system/database/provider"
	"github.com/psd2hub/consent-cms/internal/system/log"
	"github.com/psd2hub/consent-cms/internal/system/stores"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := log.GetLogger()
	logger.Info("Starting consent management server",
		log.String("version", version),
		log.String("build_date", buildDate))

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal("Failed to load configuration", log.Error(err))
	}
	log.SetLevel(cfg.Logging.Level)

	db, err := database.Initialize(&cfg.Database.Consent)
	if err != nil {
		logger.Fatal("Failed to initialize database", log.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		logger.Fatal("Database health check failed", log.Error(err))
	}
	logger.Info("Database connection established")

	provider.InitDBProvider(db, cfg.Database.Consent.Type)
	dbClient, err := provider.GetDBProvider().GetConsentDBClient()
	if err != nil {
		logger.Fatal("Failed to get database client", log.Error(err))
	}
	defer provider.GetDBProviderCloser().Close()

	cipher, err := idcipher.NewIDCipher(cfg.Security.IDEncryptionKey)
	if err != nil {
		logger.Fatal("Failed to initialize id cipher", log.Error(err))
	}

	profileProvider := profile.NewSettingsProvider(&cfg.Profile)

	consentStore := consent.NewConsentStore(dbClient)
	authorisationStore := authorisation.NewAuthorisationStore(dbClient)
	paymentStore := payment.NewPaymentStore(dbClient)
	registry := stores.NewStoreRegistry(dbClient, consentStore, authorisationStore, paymentStore)

	ginRouter := router.SetupRouter(router.Dependencies{
		ConsentStore:       consentStore,
		AuthorisationStore: authorisationStore,
		PaymentStore:       paymentStore,
		Registry:           registry,
		ProfileProvider:    profileProvider,
		Cipher:             cipher,
		CORS:               &cfg.CORS,
	})

	serverAddr := cfg.Server.GetServerAddress()
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("HTTP server listening", log.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", log.Error(err))
	}
	logger.Info("Server exited gracefully")
}
