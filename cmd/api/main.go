package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/paypoint/internal/application/service"
	"github.com/sangkips/paypoint/internal/config"
	domainRepo "github.com/sangkips/paypoint/internal/domain/repository"
	"github.com/sangkips/paypoint/internal/engine"
	"github.com/sangkips/paypoint/internal/infrastructure/database"
	"github.com/sangkips/paypoint/internal/infrastructure/gateway"
	"github.com/sangkips/paypoint/internal/infrastructure/peripheral"
	"github.com/sangkips/paypoint/internal/infrastructure/repository"
	"github.com/sangkips/paypoint/internal/presentation/http/handler"
	"github.com/sangkips/paypoint/internal/presentation/http/routes"
	"github.com/sangkips/paypoint/pkg/printer"
	"github.com/sangkips/paypoint/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// The offline queue lives in Postgres; a memory store keeps the agent
	// usable on terminals that never queue.
	var store domainRepo.TransactionStore
	if cfg.Payment.QueueWhenOffline {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		store = repository.NewTransactionStoreRepository(db)
	} else {
		store = repository.NewMemoryStore()
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}

	// Initialize services. The payment service is created before the engine
	// because the engine delivers its events to it.
	paymentService := service.NewPaymentService(store, thermalPrinter, cfg.Payment.PosID)
	authService := service.NewAuthService(jwtManager, &cfg.JWT, cfg.Payment.PosID)

	// Build the payment engine
	cardReader := peripheral.NewSimulatedReader(cfg.Payment.PeripheralSerial)
	paymentGateway := gateway.NewHTTPGateway(&cfg.Gateway, cfg.Payment.RegistrationUsername, cfg.Payment.RegistrationPassword)

	eng, err := engine.Build(context.Background(), engine.Config{
		PosID:                cfg.Payment.PosID,
		RegistrationUsername: cfg.Payment.RegistrationUsername,
		RegistrationPassword: cfg.Payment.RegistrationPassword,
		TransactionTimeout:   cfg.Payment.TransactionTimeout,
		SignatureTimeout:     cfg.Payment.SignatureTimeout,
		QueueWhenOffline:     cfg.Payment.QueueWhenOffline,
		AutoUploadInterval:   cfg.Payment.AutoUploadInterval,
		Services:             cfg.Payment.Services,
		AutoConnect:          true,
	}, engine.Deps{
		Peripheral: cardReader,
		Gateway:    paymentGateway,
		Store:      store,
		Listener:   paymentService,
	})
	if err != nil {
		log.Fatalf("Failed to build payment engine: %v", err)
	}
	defer engine.Reset()
	paymentService.AttachEngine(eng)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Terminal: handler.NewTerminalHandler(paymentService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager: jwtManager,
		Cfg:        cfg,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s terminal agent on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s | Gateway: %s", cfg.App.Env, cfg.Gateway.Environment)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
