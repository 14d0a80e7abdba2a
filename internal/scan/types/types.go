package types

import (
	"context"
	"errors"
	"time"
)

// Category is the closed set of email types. It selects style hints and
// training context only; it never decides whether a message is drafted.
type Category string

const (
	CategoryInquiry   Category = "inquiry"
	CategoryComplaint Category = "complaint"
	CategoryFollowUp  Category = "follow-up"
	CategoryRequest   Category = "request"
	CategoryGeneral   Category = "general"
)

func Categories() []Category {
	return []Category{
		CategoryInquiry,
		CategoryComplaint,
		CategoryFollowUp,
		CategoryRequest,
		CategoryGeneral,
	}
}

func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryGeneral, false
}

// Style is the phrasing mode selected by message age: same-day messages
// get an immediate acknowledgment, older ones must own up to the delay.
type Style string

const (
	StylePrompt  Style = "prompt"
	StyleDelayed Style = "delayed"
)

// Message is the provider-owned view of a mailbox message. The dispatcher
// reads it and, at most, marks it processed.
type Message struct {
	ID             string
	ConversationID string
	Subject        string
	Sender         string
	Body           string
	ReceivedAt     time.Time
	IsRead         bool
}

// Draft is a reply to be written into the Drafts folder.
type Draft struct {
	Subject        string
	Body           string
	To             []string
	InReplyTo      string
	ConversationID string
}

// Summary is the per-invocation result reported to the trigger channel.
type Summary struct {
	ScanID    string    `json:"scan_id"`
	StartedAt time.Time `json:"started_at"`
	Scanned   int       `json:"scanned"`
	Eligible  int       `json:"eligible"`
	Drafted   int       `json:"drafted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors,omitempty"`
	Message   string    `json:"message"`
}

// Error taxonomy. Providers wrap these with %w; the processing boundary
// decides with errors.Is whether a failure is batch-fatal.
var (
	// ErrAuthentication is batch-fatal: without a session nothing can be
	// evaluated.
	ErrAuthentication = errors.New("mail provider authentication failed")
	// ErrProvider marks a transient mail provider failure, fail-soft per
	// message.
	ErrProvider = errors.New("mail provider request failed")
	// ErrGeneration marks a completion provider failure, fail-soft per
	// message.
	ErrGeneration = errors.New("response generation failed")
	// ErrConfiguration is fatal at startup, before any message is read.
	ErrConfiguration = errors.New("invalid configuration")
)

// MailProvider is the contract with the external mail API. Implementations
// live in internal/datasource.
type MailProvider interface {
	// ListRecent returns up to max messages received in folder since the
	// given cutoff, most recent first.
	ListRecent(ctx context.Context, folder string, since time.Time, max int) ([]Message, error)
	// HasReply reports whether the mailbox owner already answered msg,
	// using the richest signal the backend exposes.
	HasReply(ctx context.Context, msg Message) (bool, error)
	// HasDraft reports whether a reply draft for msg already exists.
	HasDraft(ctx context.Context, msg Message) (bool, error)
	CreateDraft(ctx context.Context, draft Draft) error
	// MarkProcessed flags the message so later scans see it as handled.
	MarkProcessed(ctx context.Context, id string) error
}

type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer is the contract with the completion provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Classifier assigns a message to one of the closed categories.
type Classifier interface {
	Classify(ctx context.Context, msg Message) (Category, error)
}
