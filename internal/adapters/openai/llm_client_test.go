package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIClient(openai.NewClientWithConfig(cfg), "gpt-test", 100, 0.1, 0.9, 4096,
		zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-test",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestClassifyParsesAnswer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Your parcel is held")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"is_scam":true,"confidence":0.9,"explanation":"fake delivery"}`))
	})

	res, err := client.Classify(context.Background(), &core.ClassificationRequest{
		Channel: core.ChannelSMS,
		Sender:  "+15550001",
		Message: "Your parcel is held",
	})
	require.NoError(t, err)
	assert.Equal(t, core.VerdictScam, res.Verdict)
	assert.Equal(t, "gpt-test", res.ModelUsed)
	assert.Equal(t, "fake delivery", res.Explanation)
}

func TestClassifyAPIErrorIsNetwork(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	_, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelSMS, Message: "x"})
	assert.ErrorIs(t, err, core.ErrNetwork)
}

func TestClassifyGarbageIsParseError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("I cannot help with that"))
	})

	_, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelSMS, Message: "x"})
	assert.ErrorIs(t, err, core.ErrParse)
}
