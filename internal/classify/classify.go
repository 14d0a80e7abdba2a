// Package classify assigns incoming messages to the closed set of email
// types used for style hints and training context.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

// RuleClassifier is the no-network fallback: a keyword pass over subject
// and body, first match wins.
type RuleClassifier struct{}

func (RuleClassifier) Classify(_ context.Context, msg types.Message) (types.Category, error) {
	text := strings.ToLower(msg.Subject + "\n" + msg.Body)

	switch {
	case containsAny(text, "complaint", "dissatisfied", "disappointed", "unacceptable", "refund", "not working as promised"):
		return types.CategoryComplaint, nil
	case containsAny(text, "following up", "follow up", "follow-up", "checking in", "any update", "circling back"):
		return types.CategoryFollowUp, nil
	case containsAny(text, "please send", "could you", "would you", "can you", "i need", "request"):
		return types.CategoryRequest, nil
	case containsAny(text, "?", "how do", "what is", "when will", "more information", "interested in"):
		return types.CategoryInquiry, nil
	}

	return types.CategoryGeneral, nil
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

const classifyPrompt = `Analyze this email and classify it into one of these types:
- inquiry (asking for information)
- complaint (expressing dissatisfaction)
- follow-up (checking on previous communication)
- request (asking for action)
- general (general communication)

Email content:
%s

Respond with just the type (e.g., "inquiry"):`

// ModelClassifier asks the completion provider for the category and falls
// back to the rule classifier when the call fails or the answer is not in
// the closed set. Classification never gates drafting.
type ModelClassifier struct {
	completer types.Completer
	model     string
	fallback  RuleClassifier
}

func NewModelClassifier(completer types.Completer, model string) *ModelClassifier {
	return &ModelClassifier{completer: completer, model: model}
}

func (c *ModelClassifier) Classify(ctx context.Context, msg types.Message) (types.Category, error) {
	answer, err := c.completer.Complete(ctx, types.CompletionRequest{
		Model:       c.model,
		Prompt:      fmt.Sprintf(classifyPrompt, msg.Body),
		MaxTokens:   10,
		Temperature: 0.3,
	})
	if err != nil {
		return c.fallback.Classify(ctx, msg)
	}

	answer = strings.ToLower(strings.Trim(strings.TrimSpace(answer), `"'.`))
	if category, ok := types.ParseCategory(answer); ok {
		return category, nil
	}

	return c.fallback.Classify(ctx, msg)
}
