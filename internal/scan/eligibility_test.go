package scan

import (
	"testing"
	"time"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

func TestAgeDays(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		receivedAt time.Time
		expected   int
	}{
		{"received just now", now.Add(-5 * time.Minute), 0},
		{"received this morning", now.Add(-11 * time.Hour), 0},
		{"received 25 hours ago", now.Add(-25 * time.Hour), 1},
		{"received 2.5 days ago", now.Add(-60 * time.Hour), 2},
		{"received exactly 4 days ago", now.Add(-96 * time.Hour), 4},
		{"received 5 days ago", now.Add(-120 * time.Hour), 5},
		{"clock skew puts receipt in the future", now.Add(2 * time.Hour), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ageDays(tt.receivedAt, now); got != tt.expected {
				t.Errorf("ageDays() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestEvaluateAt(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	const threshold = 4

	tests := []struct {
		name     string
		msg      types.Message
		domains  []string
		eligible bool
		reason   string
		style    types.Style
	}{
		{
			name:     "same day message gets prompt style",
			msg:      types.Message{Sender: "a@example.com", ReceivedAt: now.Add(-2 * time.Hour)},
			eligible: true,
			style:    types.StylePrompt,
		},
		{
			name:     "two day old message gets delayed style",
			msg:      types.Message{Sender: "a@example.com", ReceivedAt: now.Add(-49 * time.Hour)},
			eligible: true,
			style:    types.StyleDelayed,
		},
		{
			name:     "message at the threshold is still eligible",
			msg:      types.Message{Sender: "a@example.com", ReceivedAt: now.Add(-96 * time.Hour)},
			eligible: true,
			style:    types.StyleDelayed,
		},
		{
			name:   "message beyond the threshold is rejected",
			msg:    types.Message{Sender: "a@example.com", ReceivedAt: now.Add(-120 * time.Hour)},
			reason: reasonTooOld,
		},
		{
			name:     "sender on the allow-list passes",
			msg:      types.Message{Sender: "a@Example.COM", ReceivedAt: now.Add(-2 * time.Hour)},
			domains:  []string{"example.com"},
			eligible: true,
			style:    types.StylePrompt,
		},
		{
			name:    "sender off the allow-list is rejected",
			msg:     types.Message{Sender: "a@other.org", ReceivedAt: now.Add(-2 * time.Hour)},
			domains: []string{"example.com"},
			reason:  reasonDomain,
		},
		{
			name:    "age is checked before the allow-list",
			msg:     types.Message{Sender: "a@other.org", ReceivedAt: now.Add(-120 * time.Hour)},
			domains: []string{"example.com"},
			reason:  reasonTooOld,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			dec := evaluateAt(tt.msg, now, threshold, tt.domains)

			if dec.Eligible != tt.eligible {
				t.Fatalf("Eligible = %v, want %v (reason %q)", dec.Eligible, tt.eligible, dec.Reason)
			}
			if !tt.eligible && dec.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", dec.Reason, tt.reason)
			}
			if tt.eligible && dec.Style != tt.style {
				t.Errorf("Style = %q, want %q", dec.Style, tt.style)
			}
		})
	}
}

func TestDomainAllowed(t *testing.T) {
	tests := []struct {
		name    string
		sender  string
		allowed []string
		want    bool
	}{
		{"no allow-list accepts everyone", "a@anywhere.io", nil, true},
		{"exact match", "a@example.com", []string{"example.com"}, true},
		{"case insensitive match", "a@EXAMPLE.com", []string{"example.com"}, true},
		{"different domain", "a@other.org", []string{"example.com"}, false},
		{"sender without domain", "nodomain", []string{"example.com"}, false},
		{"sender ending in @", "broken@", []string{"example.com"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := domainAllowed(tt.sender, tt.allowed); got != tt.want {
				t.Errorf("domainAllowed(%q) = %v, want %v", tt.sender, got, tt.want)
			}
		})
	}
}
