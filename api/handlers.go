package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mevshield/slippage-engine/internal/tokens"
	"github.com/mevshield/slippage-engine/pkg/errors"
)

// SlippageRequest is the caller-facing request for a recommendation. Token
// identifiers are either known symbols or checksum-insensitive 0x addresses.
type SlippageRequest struct {
	TokenIn   string   `json:"token_in" validate:"required"`
	TokenOut  string   `json:"token_out" validate:"required"`
	AmountUSD *float64 `json:"amount_usd" validate:"omitempty,gte=0"`
}

// ChatRequest is the assistant request body.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// errorResponse is the uniform error body: {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the MEV Shield Slippage Engine API!",
		"health":  "/health",
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "slippage-engine"})
}

// calculateSlippage handles POST /api/slippage. Invalid identifiers reject
// before any upstream work; a dead listener is the caller's problem (503);
// price/liquidity degradation never surfaces here.
func (s *Server) calculateSlippage(c *gin.Context) {
	var req SlippageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	// Validate both identifiers up front so malformed input never reaches
	// the listener.
	if _, err := tokens.Normalize(req.TokenIn); err != nil {
		s.renderError(c, err)
		return
	}
	pair, err := tokens.Normalize(req.TokenOut)
	if err != nil {
		s.renderError(c, err)
		return
	}

	stats, err := s.activity.PairStats(c.Request.Context(), pair)
	if err != nil {
		s.renderError(c, err)
		return
	}

	rec, err := s.engine.Recommend(c.Request.Context(), req.TokenIn, req.TokenOut, stats)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) getSymbols(c *gin.Context) {
	symbols, err := s.market.Symbols(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, symbols)
}

func (s *Server) getPriceHistory(c *gin.Context) {
	history, err := s.market.History(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) chatMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.assistant.Reply(c.Request.Context(), req.Message))
}

// renderError maps taxonomy kinds to status codes. Anything outside the
// taxonomy logs its cause and reports a generic internal fault: raw error
// text never leaks to the caller.
func (s *Server) renderError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
	}
	c.JSON(status, errorResponse{Detail: errors.Message(err)})
}
