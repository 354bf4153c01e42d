// Package api exposes the slippage engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	limiter "github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/internal/chat"
	"github.com/mevshield/slippage-engine/internal/engine"
	"github.com/mevshield/slippage-engine/internal/listener"
	"github.com/mevshield/slippage-engine/internal/marketdata"
)

// Engine is the recommendation pipeline dependency.
type Engine interface {
	Recommend(ctx context.Context, tokenIn, tokenOut string, stats *listener.ActivityStats) (*engine.SlippageRecommendation, error)
}

// ActivitySource supplies per-pair activity stats (the listener collaborator).
type ActivitySource interface {
	PairStats(ctx context.Context, pair string) (*listener.ActivityStats, error)
}

// MarketData serves the watchlist and chart endpoints.
type MarketData interface {
	Symbols(ctx context.Context) ([]marketdata.SymbolQuote, error)
	History(ctx context.Context, symbol string) (*marketdata.PriceHistory, error)
}

// Assistant answers chat messages.
type Assistant interface {
	Reply(ctx context.Context, message string) chat.Response
}

// Options configures the API server.
type Options struct {
	CORSOrigins []string
	RateLimit   string // limiter format, e.g. "100-M"
}

// Server represents the API server
type Server struct {
	router    *gin.Engine
	logger    *zap.Logger
	validator *validator.Validate
	engine    Engine
	activity  ActivitySource
	market    MarketData
	assistant Assistant
}

// NewServer creates the API server with injected service dependencies.
func NewServer(logger *zap.Logger, eng Engine, activity ActivitySource, market MarketData, assistant Assistant, opts Options) *Server {
	server := &Server{
		logger:    logger,
		validator: validator.New(),
		engine:    eng,
		activity:  activity,
		market:    market,
		assistant: assistant,
	}

	router := gin.New()

	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(otelgin.Middleware("mevshield-api"))
	router.Use(requestIDMiddleware())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rate := opts.RateLimit
	if rate == "" {
		rate = "100-M"
	}
	if parsed, err := limiter.NewRateFromFormatted(rate); err == nil {
		store := memory.NewStore()
		router.Use(ginlimiter.NewMiddleware(limiter.New(store, parsed)))
	} else {
		logger.Warn("invalid rate limit format, limiter disabled", zap.String("rate", rate), zap.Error(err))
	}

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Handler returns the engine as an http.Handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	s.router.GET("/", s.root)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := s.router.Group("/api")
	{
		apiGroup.POST("/slippage", s.calculateSlippage)

		market := apiGroup.Group("/market")
		{
			market.GET("/symbols", s.getSymbols)
			market.GET("/price/:symbol", s.getPriceHistory)
		}

		apiGroup.POST("/chat", s.chatMessage)
	}
}

// requestIDMiddleware tags every request/response pair with an id for log
// correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
