package scan

import (
	"fmt"
	"strings"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
	"github.com/draftpilot/outlook-autodraft/internal/training"
)

const systemPrompt = "You are a professional email assistant that writes clear, polite, and professional email responses."

const (
	maxContextExamples  = 5
	maxContextTemplates = 3
)

// TrainingSource is the read-only view of the training store the
// dispatcher consumes.
type TrainingSource interface {
	Examples(emailType, tone string) []training.Example
	Templates(emailType string) []training.Template
}

// BuildPrompt assembles the completion prompt for one message. Same-day
// messages ask for an immediate acknowledgment; older ones must name the
// elapsed days and apologize for the delay before addressing content.
func BuildPrompt(msg types.Message, dec Decision, category types.Category, tone string, source TrainingSource) string {
	var b strings.Builder

	if dec.Style == types.StylePrompt {
		fmt.Fprintf(&b, "Generate a polite and professional response to the following email that was received today.\n\n")
	} else {
		fmt.Fprintf(&b, "Generate a polite and professional response to the following email that was received %d days ago.\n\n", dec.AgeDays)
	}

	if source != nil {
		b.WriteString(trainingContext(source, category, tone))
		b.WriteString(templateContext(source, category))
	}

	fmt.Fprintf(&b, "Original Email:\nFrom: %s\nSubject: %s\nReceived: %s\n\nContent:\n%s\n\n",
		msg.Sender, msg.Subject, msg.ReceivedAt.Format("2006-01-02 15:04"), msg.Body)

	fmt.Fprintf(&b, "Email Type: %s\nDesired Tone: %s\n\n", category, tone)

	b.WriteString("Please generate a response that:\n")
	if dec.Style == types.StylePrompt {
		b.WriteString("1. Acknowledges the email promptly\n")
		b.WriteString("2. Addresses any questions or concerns raised in the original email\n")
		b.WriteString("3. Maintains a professional and courteous tone\n")
		b.WriteString("4. Is concise but comprehensive\n")
		b.WriteString("5. Includes a proper greeting and closing\n")
	} else {
		fmt.Fprintf(&b, "1. Acknowledges the delay in responding (since the email is %d days old, e.g. \"Thank you for your email from %d days ago\")\n", dec.AgeDays, dec.AgeDays)
		b.WriteString("2. Apologizes for the late response\n")
		b.WriteString("3. Addresses any questions or concerns raised in the original email\n")
		b.WriteString("4. Maintains a professional and courteous tone\n")
		b.WriteString("5. Is concise but comprehensive\n")
		b.WriteString("6. Includes a proper greeting and closing\n")
	}

	b.WriteString("\nResponse:\n")
	return b.String()
}

func trainingContext(source TrainingSource, category types.Category, tone string) string {
	examples := source.Examples(string(category), tone)
	if len(examples) == 0 {
		// fall back to category-only matches before giving up
		examples = source.Examples(string(category), "")
	}
	if len(examples) == 0 {
		return ""
	}
	if len(examples) > maxContextExamples {
		examples = examples[:maxContextExamples]
	}

	var b strings.Builder
	b.WriteString("Based on these training examples, generate similar responses:\n\n")
	for i, e := range examples {
		fmt.Fprintf(&b, "Example %d:\n", i+1)
		fmt.Fprintf(&b, "Original Email: %s\n", e.OriginalEmail)
		fmt.Fprintf(&b, "Your Response: %s\n", e.Response)
		fmt.Fprintf(&b, "Type: %s, Tone: %s\n", e.EmailType, e.Tone)
		fmt.Fprintf(&b, "Key Points: %s\n\n", strings.Join(e.KeyPoints, ", "))
	}
	return b.String()
}

func templateContext(source TrainingSource, category types.Category) string {
	templates := source.Templates(string(category))
	if len(templates) == 0 {
		return ""
	}
	if len(templates) > maxContextTemplates {
		templates = templates[:maxContextTemplates]
	}

	var b strings.Builder
	b.WriteString("Use these response templates as guidance:\n\n")
	for _, t := range templates {
		fmt.Fprintf(&b, "Template: %s\n", t.Name)
		fmt.Fprintf(&b, "Type: %s, Tone: %s\n", t.EmailType, t.Tone)
		fmt.Fprintf(&b, "Text: %s\n", t.Template)
		fmt.Fprintf(&b, "Variables: %s\n\n", strings.Join(t.Variables, ", "))
	}
	return b.String()
}
