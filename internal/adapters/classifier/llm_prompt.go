package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

// SystemPrompt is sent as the system role where the provider supports one
const SystemPrompt = "You are a scam detection system. Respond only with JSON."

const messagePromptFormat = `You are a scam detection system. Analyze the following %s and determine if it's a scam.
Respond with a JSON object containing:
- is_scam: boolean (true if scam, false if not)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- explanation: string (brief explanation of why you think it's a scam or not)

From: %s
%s
Respond only with the JSON object and nothing else.`

// LLMAnswer is the structured answer expected from a language model
type LLMAnswer struct {
	IsScam      bool     `json:"is_scam"`
	Confidence  *float64 `json:"confidence"`
	Explanation string   `json:"explanation"`
}

// BuildPrompt renders the classification prompt for a request
func BuildPrompt(req *core.ClassificationRequest, tp *utils.TextProcessor, maxBodySize int) string {
	var kind, content string
	switch req.Channel {
	case core.ChannelEmail:
		kind = "email"
		content = fmt.Sprintf("Subject: %s\nBody:\n%s\n",
			tp.ProcessText(req.Subject, maxBodySize),
			tp.ProcessText(req.Body, maxBodySize))
	case core.ChannelCall:
		kind = "incoming phone call"
		content = "The only information available is the caller number.\n"
	default:
		kind = "text message"
		content = fmt.Sprintf("Message:\n%s\n", tp.ProcessText(req.Message, maxBodySize))
	}
	return fmt.Sprintf(messagePromptFormat, kind, req.Sender, content)
}

// ParseLLMAnswer extracts the JSON answer from model output, tolerating text
// around the object
func ParseLLMAnswer(text string, model string) (*core.ClassificationResult, error) {
	var answer LLMAnswer
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		start := strings.IndexByte(text, '{')
		end := strings.LastIndexByte(text, '}')
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: no JSON object in model response", core.ErrParse)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &answer); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
		}
	}
	if answer.Confidence != nil && (*answer.Confidence < 0 || *answer.Confidence > 1) {
		return nil, fmt.Errorf("%w: confidence %v out of range", core.ErrParse, *answer.Confidence)
	}

	verdict := core.VerdictHam
	if answer.IsScam {
		verdict = core.VerdictScam
	}
	return &core.ClassificationResult{
		Verdict:     verdict,
		Confidence:  answer.Confidence,
		Explanation: answer.Explanation,
		ModelUsed:   model,
		AnalyzedAt:  time.Now(),
	}, nil
}
