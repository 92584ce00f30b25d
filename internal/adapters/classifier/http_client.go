// Package classifier talks to the remote scam/ham prediction endpoint.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

const maxResponseBytes = 1 << 20

// messageRequest is the payload for SMS and call content
type messageRequest struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// emailRequest is the payload for email content
type emailRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// predictionResponse is the classifier answer
type predictionResponse struct {
	PredictedResult *string  `json:"predicted_result"`
	Confidence      *float64 `json:"confidence"`
}

// HTTPClient is an implementation of the Classifier interface over HTTP
type HTTPClient struct {
	client        *http.Client
	endpoint      string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewHTTPClient creates a new HTTP classifier client
func NewHTTPClient(
	endpoint string,
	timeout time.Duration,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *HTTPClient {
	return &HTTPClient{
		client:        &http.Client{Timeout: timeout},
		endpoint:      endpoint,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify posts the request to the classifier endpoint
func (c *HTTPClient) Classify(ctx context.Context, req *core.ClassificationRequest) (*core.ClassificationResult, error) {
	var payload any
	if req.Channel == core.ChannelEmail {
		payload = emailRequest{
			Subject: c.textProcessor.ProcessText(req.Subject, c.maxBodySize),
			Body:    c.textProcessor.ProcessText(req.Body, c.maxBodySize),
		}
	} else {
		payload = messageRequest{
			Message: c.textProcessor.ProcessText(req.Message, c.maxBodySize),
			Sender:  req.Sender,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	c.logger.Debug("Classifier request completed",
		zap.String("channel", string(req.Channel)),
		zap.Int("status_code", resp.StatusCode),
		zap.Int64("duration_ms", duration.Milliseconds()))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", core.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 256)}
	}

	return parsePrediction(raw)
}

// StatusError is returned for non-2xx classifier answers
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("classifier returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Is makes every status error match core.ErrNetwork
func (e *StatusError) Is(target error) bool {
	return target == core.ErrNetwork
}

// Retryable is false for client errors other than 408 and 429
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests
}

func parsePrediction(raw []byte) (*core.ClassificationResult, error) {
	var pr predictionResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}
	if pr.PredictedResult == nil {
		return nil, fmt.Errorf("%w: missing predicted_result", core.ErrParse)
	}
	if pr.Confidence != nil && (*pr.Confidence < 0 || *pr.Confidence > 1) {
		return nil, fmt.Errorf("%w: confidence %v out of range", core.ErrParse, *pr.Confidence)
	}

	verdict := core.VerdictHam
	if strings.EqualFold(strings.TrimSpace(*pr.PredictedResult), string(core.VerdictScam)) {
		verdict = core.VerdictScam
	}

	return &core.ClassificationResult{
		Verdict:    verdict,
		Confidence: pr.Confidence,
		ModelUsed:  "remote",
		AnalyzedAt: time.Now(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
