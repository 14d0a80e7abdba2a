package scan

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
	"github.com/draftpilot/outlook-autodraft/internal/training"
)

func testMessage() types.Message {
	return types.Message{
		ID:         "msg-1",
		Subject:    "Quarterly report",
		Sender:     "alice@example.com",
		Body:       "Could you send over the Q3 numbers?",
		ReceivedAt: time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC),
	}
}

func TestBuildPromptSameDay(t *testing.T) {
	dec := Decision{Eligible: true, AgeDays: 0, Style: types.StylePrompt}
	prompt := BuildPrompt(testMessage(), dec, types.CategoryInquiry, "professional", nil)

	if !strings.Contains(prompt, "received today") {
		t.Errorf("same-day prompt should mention the email was received today:\n%s", prompt)
	}
	if strings.Contains(prompt, "days ago") {
		t.Errorf("same-day prompt must not contain delay language:\n%s", prompt)
	}
	if strings.Contains(prompt, "Apologizes") {
		t.Errorf("same-day prompt must not ask for an apology:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Could you send over the Q3 numbers?") {
		t.Error("prompt should embed the original body")
	}
}

func TestBuildPromptDelayed(t *testing.T) {
	dec := Decision{Eligible: true, AgeDays: 2, Style: types.StyleDelayed}
	prompt := BuildPrompt(testMessage(), dec, types.CategoryInquiry, "professional", nil)

	if !strings.Contains(prompt, "2 days ago") {
		t.Errorf("delayed prompt must reference the elapsed days:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Apologizes for the late response") {
		t.Errorf("delayed prompt must ask for an apology:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Acknowledges the delay") {
		t.Errorf("delayed prompt must ask to acknowledge the delay:\n%s", prompt)
	}
}

func TestBuildPromptIncludesTrainingContext(t *testing.T) {
	store, err := training.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	err = store.AddExample(training.Example{
		OriginalEmail: "When do you open?",
		Response:      "We open at nine.",
		EmailType:     "inquiry",
		Tone:          "professional",
		KeyPoints:     []string{"opening hours"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = store.AddTemplate(training.Template{
		Name:      "hours",
		EmailType: "inquiry",
		Tone:      "professional",
		Template:  "Hi {sender_name}, we open at {time}.",
		Variables: []string{"sender_name", "time"},
	})
	if err != nil {
		t.Fatal(err)
	}

	dec := Decision{Eligible: true, AgeDays: 0, Style: types.StylePrompt}
	prompt := BuildPrompt(testMessage(), dec, types.CategoryInquiry, "professional", store)

	if !strings.Contains(prompt, "We open at nine.") {
		t.Errorf("prompt should embed the matching training example:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Hi {sender_name}, we open at {time}.") {
		t.Errorf("prompt should embed the matching template:\n%s", prompt)
	}
}

func TestBuildPromptSkipsUnrelatedTraining(t *testing.T) {
	store, err := training.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	err = store.AddExample(training.Example{
		OriginalEmail: "This product is broken.",
		Response:      "We are sorry to hear that.",
		EmailType:     "complaint",
		Tone:          "professional",
	})
	if err != nil {
		t.Fatal(err)
	}

	dec := Decision{Eligible: true, AgeDays: 0, Style: types.StylePrompt}
	prompt := BuildPrompt(testMessage(), dec, types.CategoryInquiry, "professional", store)

	if strings.Contains(prompt, "We are sorry to hear that.") {
		t.Errorf("prompt should not embed examples of a different type:\n%s", prompt)
	}
}

func TestBuildPromptCapsContext(t *testing.T) {
	store, err := training.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < maxContextExamples+2; i++ {
		err := store.AddExample(training.Example{
			OriginalEmail: fmt.Sprintf("question %d", i),
			Response:      fmt.Sprintf("answer %d", i),
			EmailType:     "inquiry",
			Tone:          "professional",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	dec := Decision{Eligible: true, AgeDays: 0, Style: types.StylePrompt}
	prompt := BuildPrompt(testMessage(), dec, types.CategoryInquiry, "professional", store)

	if !strings.Contains(prompt, fmt.Sprintf("Example %d:", maxContextExamples)) {
		t.Errorf("prompt should include %d examples", maxContextExamples)
	}
	if strings.Contains(prompt, fmt.Sprintf("Example %d:", maxContextExamples+1)) {
		t.Errorf("prompt should cap examples at %d", maxContextExamples)
	}
}
