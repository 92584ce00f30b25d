package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

type invokeFunc func(ctx context.Context, in *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error)

func (f invokeFunc) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return f(ctx, in)
}

func newClient(model string, fn invokeFunc) *BedrockClient {
	return NewBedrockClient(fn, model, 200, 0.1, 0.9, 4096, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
}

func TestClassifyAnthropic(t *testing.T) {
	client := newClient("anthropic.claude-3-haiku", func(_ context.Context, in *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
		var payload map[string]any
		require.NoError(t, json.Unmarshal(in.Body, &payload))
		assert.Equal(t, "bedrock-2023-05-31", payload["anthropic_version"])
		assert.Equal(t, "anthropic.claude-3-haiku", *in.ModelId)

		body := `{"content":[{"type":"text","text":"{\"is_scam\":true,\"confidence\":0.7}"}]}`
		return &bedrockruntime.InvokeModelOutput{Body: []byte(body)}, nil
	})

	res, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelSMS, Message: "win"})
	require.NoError(t, err)
	assert.Equal(t, core.VerdictScam, res.Verdict)
	assert.Equal(t, "anthropic.claude-3-haiku", res.ModelUsed)
}

func TestClassifyTitan(t *testing.T) {
	client := newClient("amazon.titan-text-express-v1", func(_ context.Context, in *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
		var payload map[string]any
		require.NoError(t, json.Unmarshal(in.Body, &payload))
		assert.Contains(t, payload, "inputText")

		body := `{"results":[{"outputText":"{\"is_scam\":false,\"confidence\":0.2}"}]}`
		return &bedrockruntime.InvokeModelOutput{Body: []byte(body)}, nil
	})

	res, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelEmail, Subject: "hi", Body: "lunch?"})
	require.NoError(t, err)
	assert.Equal(t, core.VerdictHam, res.Verdict)
}

func TestClassifyInvokeErrorIsNetwork(t *testing.T) {
	client := newClient("meta.llama3", func(context.Context, *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
		return nil, errors.New("throttled")
	})

	_, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelCall, Sender: "+1"})
	assert.ErrorIs(t, err, core.ErrNetwork)
}

func TestClassifyEmptyTitanIsParseError(t *testing.T) {
	client := newClient("amazon.titan-text-lite-v1", func(context.Context, *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
		return &bedrockruntime.InvokeModelOutput{Body: []byte(`{"results":[]}`)}, nil
	})

	_, err := client.Classify(context.Background(), &core.ClassificationRequest{Channel: core.ChannelSMS, Message: "x"})
	assert.ErrorIs(t, err, core.ErrParse)
}
