package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

func TestRuleClassifier(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		expected types.Category
	}{
		{"refund demand", "Refund please", "I want a refund for my order.", types.CategoryComplaint},
		{"dissatisfied customer", "Service", "I am very Dissatisfied with the service.", types.CategoryComplaint},
		{"checking in", "Checking in", "Just checking in on my earlier email.", types.CategoryFollowUp},
		{"action request", "Invoice", "Could you resend the invoice?", types.CategoryRequest},
		{"plain question", "Hours", "What is your opening time", types.CategoryInquiry},
		{"question mark only", "Hello", "Are you there?", types.CategoryInquiry},
		{"nothing matches", "FYI", "Attached the minutes from today.", types.CategoryGeneral},
		{"complaint wins over question", "Complaint", "Why is this unacceptable product still broken?", types.CategoryComplaint},
	}

	var c RuleClassifier
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), types.Message{Subject: tt.subject, Body: tt.body})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("Classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

type stubCompleter struct {
	answer string
	err    error
	reqs   []types.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req types.CompletionRequest) (string, error) {
	s.reqs = append(s.reqs, req)
	return s.answer, s.err
}

func TestModelClassifier(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		err      error
		expected types.Category
	}{
		{"clean answer", "inquiry", nil, types.CategoryInquiry},
		{"quoted answer", `"complaint"`, nil, types.CategoryComplaint},
		{"trailing period", "request.", nil, types.CategoryRequest},
		{"mixed case", "Follow-Up", nil, types.CategoryFollowUp},
		{"unparsable falls back to rules", "something else entirely", nil, types.CategoryRequest},
		{"error falls back to rules", "", errors.New("timeout"), types.CategoryRequest},
	}

	// "Could you" routes the rule fallback to request
	msg := types.Message{Subject: "Invoice", Body: "Could you resend the invoice?"}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			completer := &stubCompleter{answer: tt.answer, err: tt.err}
			c := NewModelClassifier(completer, "gpt-3.5-turbo")

			got, err := c.Classify(context.Background(), msg)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Errorf("Classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestModelClassifierRequest(t *testing.T) {
	completer := &stubCompleter{answer: "general"}
	c := NewModelClassifier(completer, "gpt-3.5-turbo")

	_, err := c.Classify(context.Background(), types.Message{Body: "hello there"})
	if err != nil {
		t.Fatal(err)
	}

	if len(completer.reqs) != 1 {
		t.Fatalf("completer called %d times, want 1", len(completer.reqs))
	}
	req := completer.reqs[0]
	if req.Model != "gpt-3.5-turbo" {
		t.Errorf("Model = %q", req.Model)
	}
	if req.MaxTokens != 10 || req.Temperature != 0.3 {
		t.Errorf("MaxTokens/Temperature = %d/%v, want 10/0.3", req.MaxTokens, req.Temperature)
	}
}
