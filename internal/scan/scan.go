// Package scan is the eligibility and response dispatcher: one Run per
// trigger invocation, zero or one draft per eligible message.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draftpilot/outlook-autodraft/internal/config"
	"github.com/draftpilot/outlook-autodraft/internal/logger"
	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

const (
	completionMaxTokens   = 500
	completionTemperature = 0.7
	defaultTone           = "professional"
)

// Dependencies carries the collaborators of one scan. Training, ScanLog
// and Notifier are optional; Now defaults to time.Now.
type Dependencies struct {
	Mail       types.MailProvider
	Completer  types.Completer
	Classifier types.Classifier
	Training   TrainingSource
	ScanLog    ScanLogger
	Notifier   Notifier
	Now        func() time.Time
}

// Run evaluates one batch of recent messages and drafts replies for the
// eligible ones. Per-message failures are recorded and skipped; a listing
// or authentication failure aborts the batch.
func Run(ctx context.Context, cfg *config.Config, deps Dependencies) (*types.Summary, error) {
	log := logger.GetLogger()

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	summary := &types.Summary{
		ScanID:    uuid.NewString(),
		StartedAt: now,
	}
	log = logger.Logger{SugaredLogger: log.With("scan_id", summary.ScanID)}

	since := now.AddDate(0, 0, -LookbackDays)
	messages, err := deps.Mail.ListRecent(ctx, cfg.EmailFolder, since, cfg.MaxEmails)
	if err != nil {
		summary.Message = fmt.Sprintf("listing %s failed: %v", cfg.EmailFolder, err)
		if errors.Is(err, types.ErrAuthentication) {
			log.Errorw("authentication failed, no messages processed", "error", err)
		} else {
			log.Errorw("listing messages failed", "error", err)
		}
		return summary, err
	}

	summary.Scanned = len(messages)
	log.Infow("scan started",
		"folder", cfg.EmailFolder,
		"messages", len(messages),
		"threshold_days", cfg.DaysThreshold,
	)

	for _, msg := range messages {
		msglog := logger.Logger{SugaredLogger: log.With("msg_id", msg.ID)}

		outcome := processMessage(ctx, cfg, deps, msg, now, msglog)
		switch {
		case outcome.err != nil:
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("message %s: %v", msg.ID, outcome.err))
			msglog.Errorw("message failed", "error", outcome.err)
		case outcome.drafted:
			summary.Eligible++
			summary.Drafted++
		default:
			if outcome.wasEligible {
				summary.Eligible++
			}
			summary.Skipped++
			msglog.Infow("message skipped", "reason", outcome.skipReason)
		}
	}

	summary.Message = fmt.Sprintf("scan completed: %d drafted, %d skipped, %d failed", summary.Drafted, summary.Skipped, summary.Failed)
	log.Infow("scan completed",
		"scanned", summary.Scanned,
		"eligible", summary.Eligible,
		"drafted", summary.Drafted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	recordScan(ctx, deps.ScanLog, summary)
	notify(deps.Notifier, summary)

	return summary, nil
}

type outcome struct {
	drafted     bool
	wasEligible bool
	skipReason  string
	err         error
}

func skipped(reason string) outcome {
	return outcome{skipReason: reason}
}

func processMessage(ctx context.Context, cfg *config.Config, deps Dependencies, msg types.Message, now time.Time, log logger.Logger) outcome {
	dec := evaluateAt(msg, now, cfg.DaysThreshold, cfg.AllowedDomains)
	if !dec.Eligible {
		return skipped(dec.Reason)
	}

	replied, err := deps.Mail.HasReply(ctx, msg)
	if err != nil {
		return outcome{err: err}
	}
	if replied {
		return skipped(reasonReplied)
	}

	hasDraft, err := deps.Mail.HasDraft(ctx, msg)
	if err != nil {
		return outcome{err: err}
	}
	if hasDraft {
		return skipped(reasonDraftExists)
	}

	category := types.CategoryGeneral
	if deps.Classifier != nil {
		category, err = deps.Classifier.Classify(ctx, msg)
		if err != nil {
			// classification never gates eligibility
			log.Warnw("classification failed, using general", "error", err)
			category = types.CategoryGeneral
		}
	}

	prompt := BuildPrompt(msg, dec, category, defaultTone, deps.Training)
	body, err := deps.Completer.Complete(ctx, types.CompletionRequest{
		Model:       cfg.OpenAIModel,
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	})
	if err != nil {
		return outcome{wasEligible: true, err: err}
	}

	// re-validate right before writing; an overlapping invocation may have
	// drafted this message in the meantime
	hasDraft, err = deps.Mail.HasDraft(ctx, msg)
	if err != nil {
		return outcome{wasEligible: true, err: err}
	}
	if hasDraft {
		return outcome{wasEligible: true, skipReason: reasonDraftExists}
	}

	draft := types.Draft{
		Subject:        "Re: " + msg.Subject,
		Body:           body,
		To:             []string{msg.Sender},
		InReplyTo:      msg.ID,
		ConversationID: msg.ConversationID,
	}
	if err := deps.Mail.CreateDraft(ctx, draft); err != nil {
		return outcome{wasEligible: true, err: err}
	}

	if err := deps.Mail.MarkProcessed(ctx, msg.ID); err != nil {
		// the draft exists; the duplicate check keeps the next cycle
		// idempotent even with the message still unread
		log.Errorw("marking message processed failed", "error", err)
	}

	log.Infow("draft created",
		"subject", draft.Subject,
		"style", dec.Style,
		"age_days", dec.AgeDays,
		"category", category,
	)
	return outcome{drafted: true, wasEligible: true}
}
