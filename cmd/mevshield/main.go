package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/api"
	"github.com/mevshield/slippage-engine/internal/chat"
	"github.com/mevshield/slippage-engine/internal/coingecko"
	"github.com/mevshield/slippage-engine/internal/config"
	"github.com/mevshield/slippage-engine/internal/engine"
	"github.com/mevshield/slippage-engine/internal/liquidity"
	"github.com/mevshield/slippage-engine/internal/listener"
	"github.com/mevshield/slippage-engine/internal/marketdata"
	"github.com/mevshield/slippage-engine/internal/oracle"
	"github.com/mevshield/slippage-engine/internal/telemetry"
	"github.com/mevshield/slippage-engine/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Tracing (optional)
	if cfg.Tracing {
		shutdown, err := telemetry.InitTracing("slippage-engine")
		if err != nil {
			zapLogger.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// Upstream clients
	priceIndex := coingecko.NewClient(cfg.Upstream.PriceIndexURL, cfg.Upstream.Timeout)
	listenerClient := listener.NewClient(cfg.Upstream.ListenerURL, cfg.Upstream.Timeout, zapLogger)

	// Core services
	priceOracle := oracle.New(priceIndex, "ethereum", cfg.Oracle.DefaultPriceUSD, cfg.Oracle.CacheTTL, zapLogger)
	resolver := liquidity.NewResolver(
		cfg.Upstream.PairIndexURL,
		cfg.Liquidity.ReferenceAssetAddress,
		cfg.Liquidity.UnknownPairUSD,
		cfg.Liquidity.DegradedUSD,
		cfg.Upstream.Timeout,
		zapLogger,
	)
	recommendationEngine := engine.New(priceOracle, resolver, zapLogger)
	marketSvc := marketdata.NewService(priceIndex, zapLogger)
	assistant := chat.NewAssistant(cfg.Chat.APIKey, cfg.Chat.BaseURL, cfg.Chat.Model, cfg.Chat.Timeout, zapLogger)

	// API server
	apiServer := api.NewServer(zapLogger, recommendationEngine, listenerClient, marketSvc, assistant, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: apiServer.Handler(),
	}

	go func() {
		zapLogger.Info("Starting API server", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
	}
	zapLogger.Info("Shutdown complete")
}
