package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"x402-marketplace/internal/blockchain"
	"x402-marketplace/internal/config"
	"x402-marketplace/internal/database"
	"x402-marketplace/internal/handlers"
	"x402-marketplace/internal/jobs"
	"x402-marketplace/internal/repository"
	"x402-marketplace/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Solana client
	solanaClient := blockchain.NewSolanaClient(cfg.Solana.Network, cfg.Solana.RPCURL)

	// On-chain verification is the default; disabling it accepts any
	// structurally valid proof (local development only)
	var verifier services.PaymentVerifier
	if cfg.Marketplace.VerifyPayments {
		verifier = solanaClient
	} else {
		log.Println("WARNING: VERIFY_PAYMENTS disabled - payment proofs are trusted without on-chain checks")
	}

	// Optional live exchange rates with background refresh
	var rateService *services.RateService
	var rateRefresher *jobs.RateRefresher
	if cfg.Marketplace.LiveRatesEnabled {
		rateService = services.NewRateService()
		rateRefresher = jobs.NewRateRefresher(rateService, 5*time.Minute)
		go rateRefresher.Start()
	}

	// Initialize repository and services
	repo := repository.NewRepository(database.GetDB())

	marketplaceService := services.NewMarketplaceService(
		repo,
		verifier,
		solanaClient,
		cfg.Solana.Network,
		services.ListingFeePolicy{
			Enabled:     cfg.Marketplace.ListingFeeEnabled,
			FeeLamports: cfg.Marketplace.ListingFeeLamport,
			FeeWallet:   cfg.Marketplace.FeeWallet,
		},
	)

	var rateSource services.RateSource
	if rateService != nil {
		rateSource = rateService
	}
	purchaseService := services.NewPurchaseService(repo, verifier, rateSource, cfg.Solana.Network)

	// Initialize handlers
	listingHandler := handlers.NewListingHandler(marketplaceService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	walletHandler := handlers.NewWalletHandler(solanaClient)
	rateHandler := handlers.NewRateHandler(rateService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:3001",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Payment"},
		ExposeHeaders:    []string{"Content-Length", "X-Payment-Required", "X-Payment-Response"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// API routes
	api := router.Group("/api")
	{
		// Listing endpoints
		api.GET("/listings", listingHandler.GetListings)
		api.POST("/listings", listingHandler.CreateListing)
		api.GET("/listings/:id", listingHandler.GetListing)
		api.PATCH("/listings/:id", listingHandler.UpdateListing)
		api.DELETE("/listings/:id", listingHandler.DeleteListing)

		// Purchase endpoints (x402 flow)
		api.POST("/purchases", purchaseHandler.CreatePurchase)
		api.GET("/purchases", purchaseHandler.GetPurchases)

		// Seller endpoints
		api.GET("/orders", listingHandler.GetOrders)
		api.GET("/sellers/:wallet/stats", listingHandler.GetSellerStats)

		// Market data endpoints
		api.GET("/rates", rateHandler.GetRates)
		api.GET("/wallet/:address/balance", walletHandler.GetBalance)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Purchase flow: POST http://localhost:%s/api/purchases", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if rateRefresher != nil {
		rateRefresher.Stop()
	}

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
