package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/obsandbox/paygate/api"
	"github.com/obsandbox/paygate/cache"
	"github.com/obsandbox/paygate/config"
	"github.com/obsandbox/paygate/db"
	"github.com/obsandbox/paygate/middleware"
	"github.com/obsandbox/paygate/services"
	"github.com/obsandbox/paygate/stores"
	"github.com/obsandbox/paygate/utils"
)

func main() {
	ctx := context.Background()
	logger := utils.NewLogger("paygate")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error(ctx, "failed to load configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error(ctx, "configuration validation failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	conn, err := db.Connect(cfg.GetDatabaseURL(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.MaxLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		logger.Error(ctx, "failed to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		logger.Error(ctx, "failed to get database instance", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(conn); err != nil {
		logger.Error(ctx, "failed to migrate schema", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info(ctx, "connected to database", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.CreateRedisCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			logger.Warn(ctx, "redis unavailable, continuing without cache", map[string]interface{}{"error": err.Error()})
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	consentStore := stores.CreateConsentStore(conn)
	submissionStore := stores.CreateSubmissionStore(conn)
	balanceStore := stores.CreateBalanceStore(conn)

	consentService := services.CreateConsentService(consentStore)
	fundsService := services.CreateFundsService(consentService, balanceStore)

	var submissionCache services.SubmissionCache
	if redisCache != nil {
		submissionCache = redisCache
	}
	submissionService := services.CreateSubmissionService(submissionStore, consentService, submissionCache)

	consentHandler := api.CreateConsentHandler(consentService, fundsService)
	submissionHandler := api.CreateSubmissionHandler(submissionService)
	healthHandler := api.CreateHealthHandler(conn, redisCache)

	router := mux.NewRouter()
	router.Use(middleware.CorrelationMiddleware)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")

	obRouter := router.PathPrefix("/open-banking/{version}").Subrouter()

	obRouter.HandleFunc("/payment-consents", consentHandler.HandleCreateConsent).Methods("POST")
	obRouter.HandleFunc("/payment-consents/{id}", consentHandler.HandleGetConsent).Methods("GET")
	obRouter.HandleFunc("/payment-consents/{id}/authorise", consentHandler.HandleAuthoriseConsent).Methods("POST")
	obRouter.HandleFunc("/payment-consents/{id}/funds-confirmation", consentHandler.HandleFundsConfirmation).Methods("GET")

	obRouter.HandleFunc("/domestic-payments", submissionHandler.HandleCreateDomesticPayment).Methods("POST")
	obRouter.HandleFunc("/domestic-payments/{id}", submissionHandler.HandleGetDomesticPayment).Methods("GET")
	obRouter.HandleFunc("/file-payments", submissionHandler.HandleCreateFilePayment).Methods("POST")
	obRouter.HandleFunc("/file-payments/{id}", submissionHandler.HandleGetFilePayment).Methods("GET")
	obRouter.HandleFunc("/domestic-vrps", submissionHandler.HandleCreateDomesticVRP).Methods("POST")
	obRouter.HandleFunc("/domestic-vrps/{id}", submissionHandler.HandleGetDomesticVRP).Methods("GET")

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info(ctx, "starting HTTP server", map[string]interface{}{"port": cfg.Server.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "server failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, fmt.Sprintf("forced shutdown: %v", err))
		os.Exit(1)
	}

	logger.Info(ctx, "server stopped")
}
