package scan

import (
	"context"
	"fmt"

	"github.com/draftpilot/outlook-autodraft/internal/classify"
	"github.com/draftpilot/outlook-autodraft/internal/completion"
	"github.com/draftpilot/outlook-autodraft/internal/config"
	"github.com/draftpilot/outlook-autodraft/internal/datasource/graph"
	"github.com/draftpilot/outlook-autodraft/internal/datasource/imap"
	"github.com/draftpilot/outlook-autodraft/internal/training"
)

// Build wires the configured collaborators. The returned cleanup releases
// provider connections and must be called when the invocation ends.
func Build(ctx context.Context, cfg *config.Config) (Dependencies, func(), error) {
	cleanup := func() {}

	completer := completion.NewClient(cfg.OpenAIKey)

	store, err := training.Open(cfg.TrainingDir)
	if err != nil {
		return Dependencies{}, cleanup, fmt.Errorf("opening training store: %w", err)
	}

	deps := Dependencies{
		Completer:  completer,
		Classifier: classify.NewModelClassifier(completer, cfg.ClassifierModel),
		Training:   store,
	}

	switch cfg.Provider {
	case config.ProviderGraph:
		deps.Mail = graph.NewProvider(ctx, cfg.ClientID, cfg.ClientSecret, cfg.TenantID, cfg.DraftsFolder)
	case config.ProviderIMAP:
		provider, err := imap.Dial(cfg.IMAPAddr, cfg.IMAPUsername, cfg.IMAPPassword, cfg.DraftsFolder)
		if err != nil {
			return Dependencies{}, cleanup, err
		}
		deps.Mail = provider
		cleanup = func() { provider.Close() }
	default:
		return Dependencies{}, cleanup, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	if cfg.ScanTable != "" {
		scanLog, err := NewDynamoScanLog(cfg.AWSRegion, cfg.ScanTable)
		if err != nil {
			return Dependencies{}, cleanup, fmt.Errorf("creating scan log: %w", err)
		}
		deps.ScanLog = scanLog
	}

	if cfg.TwilioAccountSid != "" && cfg.TwilioAuthToken != "" {
		notifier, err := NewSMSNotifier(cfg.TwilioAccountSid, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioToNumber)
		if err != nil {
			return Dependencies{}, cleanup, fmt.Errorf("creating notifier: %w", err)
		}
		deps.Notifier = notifier
	}

	return deps, cleanup, nil
}
