// Package chat implements the assistant endpoint: an optional LLM upstream
// with a keyword-matched offline knowledge base as the always-available
// fallback.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Response is the assistant's reply envelope.
type Response struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

const systemPrompt = `You are the MEV Shield Assistant, a specialized crypto trading & security AI.

YOUR MANDATE:
1. Explain "Sandwich Attacks" and how this app prevents them.
2. Recommend slippage settings (low for deep pools, high for volatile meme coins).
3. Analyze market conditions and give trading perspectives.

STRICT GUARDRAILS:
- ALLOW: questions about buying, selling, prices, tokens, gas, and strategy.
- REFUSE: anything unrelated to crypto.
- REFUSAL MESSAGE: "I am the MEV Shield Assistant. My protocols are restricted to blockchain security and trading operations."

TONE: professional, decisive.`

const refusal = "I am the MEV Shield Assistant. My protocols are restricted to blockchain security and trading operations."

// offlineResponses is ordered: the first matching keyword wins.
var offlineResponses = []struct {
	keyword string
	answer  string
}{
	{"mev", "MEV (Maximal Extractable Value) refers to the profit miners/bots extract by reordering your transactions. Our dashboard detects this in real-time."},
	{"sandwich", "A Sandwich Attack is when a bot buys before you (front-run) and sells after you (back-run), forcing you to pay a higher price."},
	{"slippage", "Slippage is the price difference between when you submit a trade and when it executes. Our engine calculates the exact slippage needed to outsmart bots."},
	{"risk", "We analyze mempool gas prices and bot volume to assign a Risk Score. Green is safe; Red means bots are actively hunting."},
	{"hello", "System Online. I am the MEV Shield Assistant. I monitor the mempool for threats. How can I help you trade safely?"},
}

var refusalKeywords = []string{"snake", "game", "write code"}

const offlineDefault = "I am operating in OFFLINE MODE. I can define 'MEV', 'Sandwich Attacks', or explain 'Slippage'. Please verify your Neural Uplink (API Key)."

// Assistant answers chat messages.
type Assistant struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// NewAssistant creates an assistant. With an empty apiKey it runs in offline
// mode only.
func NewAssistant(apiKey, baseURL, model string, timeout time.Duration, logger *zap.Logger) *Assistant {
	return &Assistant{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
		now:     time.Now,
	}
}

// Reply answers a user message. The LLM upstream is attempted first when
// configured; any failure there silently falls back to the offline knowledge
// base, so Reply itself never fails.
func (a *Assistant) Reply(ctx context.Context, message string) Response {
	var content string

	if a.apiKey != "" {
		reply, err := a.complete(ctx, message)
		if err != nil {
			a.logger.Warn("LLM upstream failed, falling back to offline responses", zap.Error(err))
		} else {
			content = reply
		}
	}

	if content == "" {
		content = offlineReply(message)
	}

	return Response{
		Role:      "assistant",
		Content:   content,
		Timestamp: float64(a.now().UnixMilli()) / 1000,
	}
}

func offlineReply(message string) string {
	msg := strings.ToLower(message)

	for _, kw := range refusalKeywords {
		if strings.Contains(msg, kw) {
			return refusal
		}
	}
	for _, r := range offlineResponses {
		if strings.Contains(msg, r.keyword) {
			return r.answer
		}
	}
	return offlineDefault
}

// completionRequest is the OpenAI-compatible chat payload.
type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

func (a *Assistant) complete(ctx context.Context, message string) (string, error) {
	payload := completionRequest{
		Model: a.model,
		Messages: []completionMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Temperature: 0.6,
		MaxTokens:   150,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("completion upstream returned status %d", resp.StatusCode)
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion response has no content")
	}
	return decoded.Choices[0].Message.Content, nil
}
