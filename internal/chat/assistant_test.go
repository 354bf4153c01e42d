package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func offlineAssistant() *Assistant {
	return NewAssistant("", "", "", time.Second, zap.NewNop())
}

func TestReply_OfflineKeywords(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"mev", "what is MEV?", offlineResponses[0].answer},
		{"sandwich", "explain a Sandwich attack", offlineResponses[1].answer},
		{"slippage", "how much slippage should I set", offlineResponses[2].answer},
		{"risk", "what does the risk score mean", offlineResponses[3].answer},
		{"greeting", "hello there", offlineResponses[4].answer},
		{"no match", "what is the weather", offlineDefault},
	}

	a := offlineAssistant()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.Reply(context.Background(), tt.message)
			assert.Equal(t, "assistant", resp.Role)
			assert.Equal(t, tt.want, resp.Content)
			assert.Greater(t, resp.Timestamp, 0.0)
		})
	}
}

// Refusal keywords win over knowledge-base keywords.
func TestReply_Refusal(t *testing.T) {
	a := offlineAssistant()
	for _, msg := range []string{"play snake with me", "let's play a game about slippage", "write code for mev bots"} {
		resp := a.Reply(context.Background(), msg)
		assert.Equal(t, refusal, resp.Content, "message %q", msg)
	}
}

func TestReply_LLMUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Set 0.5% for this pool."}}]}`))
	}))
	defer srv.Close()

	a := NewAssistant("test-key", srv.URL, "gpt-4o-mini", time.Second, zap.NewNop())
	resp := a.Reply(context.Background(), "how much slippage for ETH/PEPE?")
	assert.Equal(t, "Set 0.5% for this pool.", resp.Content)
}

// An LLM failure degrades to the offline knowledge base, never to an error.
func TestReply_LLMFailureFallsBackOffline(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices": []}`))
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`oops`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := NewAssistant("test-key", srv.URL, "gpt-4o-mini", time.Second, zap.NewNop())
			resp := a.Reply(context.Background(), "what is mev?")
			assert.Equal(t, offlineResponses[0].answer, resp.Content)
		})
	}
}

func TestReply_TimestampIsEpochSeconds(t *testing.T) {
	a := offlineAssistant()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 500_000_000, time.UTC)
	a.now = func() time.Time { return fixed }

	resp := a.Reply(context.Background(), "hello")
	require.InDelta(t, float64(fixed.UnixMilli())/1000, resp.Timestamp, 1e-9)
}
