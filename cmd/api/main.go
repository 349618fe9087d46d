package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lasyfinance/internal/clock"
	"lasyfinance/internal/config"
	"lasyfinance/internal/database"
	"lasyfinance/internal/llm"
	"lasyfinance/internal/logger"
	"lasyfinance/internal/middleware"
	"lasyfinance/internal/server"
	"lasyfinance/internal/services"
	"lasyfinance/internal/validator"
	"lasyfinance/internal/whatsapp"
)

// @title           Lasy Finance API
// @version         1.0
// @description     Lasy Finance records income and expenses from WhatsApp messages and serves the dashboard API.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appConfig.Env, appConfig.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	validator.Register()

	// Create database manager
	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(database.DefaultMigrationsPath); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// External collaborators fall back to disabled variants without credentials
	model, err := llm.New(ctx, appConfig.GeminiAPIKey, appConfig.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	if !model.Available() {
		log.Warn("GEMINI_API_KEY not set, chat messages will not be classified")
	}

	var messenger whatsapp.Client = whatsapp.Disabled{}
	if appConfig.WhatsAppConfigured() {
		messenger = whatsapp.NewCloudClient(
			appConfig.WhatsAppGraphURL,
			appConfig.WhatsAppAPIVersion,
			appConfig.WhatsAppPhoneNumberID,
			appConfig.WhatsAppAccessToken,
			&http.Client{Timeout: appConfig.RequestTimeout},
		)
	} else {
		log.Warn("WhatsApp credentials not set, replies will not be delivered")
	}
	if appConfig.WhatsAppVerifyToken == "" {
		log.Warn("WHATSAPP_VERIFY_TOKEN not set, webhook verification will always fail")
	}

	// Initialize services
	db := dbManager.DB()
	clk := clock.System{Location: appConfig.Location}
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, clk)
	billService := services.NewBillService(db, clk)
	reportService := services.NewReportService(db, clk)
	messageService := services.NewMessageLogService(db)

	chatService := services.NewChatService(services.ChatDeps{
		DB:           db,
		Users:        userService,
		Categories:   categoryService,
		Transactions: transactionService,
		Bills:        billService,
		Messages:     messageService,
		Query:        services.NewQueryResponder(reportService, clk),
		LLM:          model,
		Messenger:    messenger,
		Clock:        clk,
	})

	router := server.NewRouter(server.Services{
		Users:        userService,
		Categories:   categoryService,
		Transactions: transactionService,
		Bills:        billService,
		Reminders:    services.NewReminderService(db, clk),
		Goals:        services.NewGoalService(db, clk),
		Reports:      reportService,
		Messages:     messageService,
		Provisioning: services.NewProvisioningService(db, userService, messenger, clk, appConfig.OTPTTL),
		Chat:         chatService,
	}, server.Options{
		Tokens:              middleware.NewTokenIssuer(appConfig.JWTSecret, appConfig.JWTExpirationDur),
		WhatsAppVerifyToken: appConfig.WhatsAppVerifyToken,
		WhatsAppAppSecret:   appConfig.WhatsAppAppSecret,
		RequestTimeout:      appConfig.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Lasy Finance server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
