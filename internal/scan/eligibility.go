package scan

import (
	"strings"
	"time"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

// LookbackDays bounds the provider listing; the age threshold filters on
// top of it.
const LookbackDays = 7

const (
	reasonTooOld      = "age exceeds threshold"
	reasonDomain      = "sender domain not allowed"
	reasonReplied     = "already replied"
	reasonDraftExists = "draft already exists"
)

// Decision is the outcome of the cheap, provider-free part of the
// eligibility predicate. Reply and draft state are checked afterwards,
// against the provider.
type Decision struct {
	Eligible bool
	Reason   string
	AgeDays  int
	Style    types.Style
}

// ageDays floors the elapsed time to whole days, clamped at zero so clock
// skew never produces a negative age.
func ageDays(receivedAt, now time.Time) int {
	days := int(now.Sub(receivedAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func evaluateAt(msg types.Message, now time.Time, threshold int, allowedDomains []string) Decision {
	age := ageDays(msg.ReceivedAt, now)
	if age > threshold {
		return Decision{Reason: reasonTooOld, AgeDays: age}
	}

	if !domainAllowed(msg.Sender, allowedDomains) {
		return Decision{Reason: reasonDomain, AgeDays: age}
	}

	style := types.StyleDelayed
	if age == 0 {
		style = types.StylePrompt
	}
	return Decision{Eligible: true, AgeDays: age, Style: style}
}

// domainAllowed accepts every sender when no allow-list is configured.
func domainAllowed(sender string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return false
	}

	domain := strings.ToLower(sender[at+1:])
	for _, d := range allowed {
		if domain == d {
			return true
		}
	}
	return false
}
