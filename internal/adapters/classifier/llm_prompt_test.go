package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

func TestBuildPrompt(t *testing.T) {
	tp := utils.NewTextProcessor(zap.NewNop())

	email := BuildPrompt(&core.ClassificationRequest{
		Channel: core.ChannelEmail,
		Sender:  "a@b.example",
		Subject: "Urgent",
		Body:    "Verify your account",
	}, tp, 4096)
	assert.Contains(t, email, "following email")
	assert.Contains(t, email, "Subject: Urgent")
	assert.Contains(t, email, "Verify your account")

	call := BuildPrompt(&core.ClassificationRequest{Channel: core.ChannelCall, Sender: "+15550001"}, tp, 4096)
	assert.Contains(t, call, "incoming phone call")
	assert.Contains(t, call, "From: +15550001")

	sms := BuildPrompt(&core.ClassificationRequest{Channel: core.ChannelSMS, Sender: "+1", Message: "claim now"}, tp, 4096)
	assert.Contains(t, sms, "text message")
	assert.Contains(t, sms, "claim now")
}

func TestParseLLMAnswer(t *testing.T) {
	res, err := ParseLLMAnswer(`{"is_scam":true,"confidence":0.8,"explanation":"lure"}`, "m1")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictScam, res.Verdict)
	assert.Equal(t, "m1", res.ModelUsed)
	assert.Equal(t, "lure", res.Explanation)

	wrapped, err := ParseLLMAnswer("Sure, here it is:\n{\"is_scam\":false}\nThanks", "m1")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictHam, wrapped.Verdict)
	assert.Nil(t, wrapped.Confidence)

	_, err = ParseLLMAnswer("no json here", "m1")
	assert.ErrorIs(t, err, core.ErrParse)

	_, err = ParseLLMAnswer(`{"is_scam":true,"confidence":-1}`, "m1")
	assert.ErrorIs(t, err, core.ErrParse)
}
