package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second, 4096, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
}

func TestClassifySMSScam(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"predicted_result":"Scam","confidence":0.92}`))
	})

	res, err := client.Classify(context.Background(), &core.ClassificationRequest{
		Channel: core.ChannelSMS,
		Message: "You won a prize",
		Sender:  "+15550001",
	})
	require.NoError(t, err)
	assert.Equal(t, core.VerdictScam, res.Verdict)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.92, *res.Confidence, 1e-9)
	assert.Equal(t, map[string]string{"message": "You won a prize", "sender": "+15550001"}, got)
}

func TestClassifyEmailPayload(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"predicted_result":"ham"}`))
	})

	res, err := client.Classify(context.Background(), &core.ClassificationRequest{
		Channel: core.ChannelEmail,
		Subject: "Invoice",
		Body:    "See attached",
	})
	require.NoError(t, err)
	assert.Equal(t, core.VerdictHam, res.Verdict)
	assert.Nil(t, res.Confidence)
	assert.Equal(t, map[string]string{"subject": "Invoice", "body": "See attached"}, got)
}

func TestClassifyServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelSMS, Message: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.True(t, statusErr.Retryable())
}

func TestClassifyClientErrorNotRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad input", http.StatusBadRequest)
	})

	_, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelSMS, Message: "x"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.False(t, statusErr.Retryable())
	assert.True(t, (&StatusError{StatusCode: http.StatusTooManyRequests}).Retryable())
}

func TestClassifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewHTTPClient(url, time.Second, 4096, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
	_, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelCall, Message: "+1555"})
	assert.ErrorIs(t, err, core.ErrNetwork)
}

func TestParsePrediction(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		verdict core.Verdict
	}{
		{"scam", `{"predicted_result":"scam","confidence":0.5}`, nil, core.VerdictScam},
		{"other label is ham", `{"predicted_result":"spam"}`, nil, core.VerdictHam},
		{"invalid json", `not json`, core.ErrParse, ""},
		{"missing result", `{"confidence":0.3}`, core.ErrParse, ""},
		{"confidence out of range", `{"predicted_result":"scam","confidence":1.5}`, core.ErrParse, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := parsePrediction([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, res.Verdict)
		})
	}
}
