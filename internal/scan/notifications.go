package scan

import (
	"fmt"

	"github.com/draftpilot/outlook-autodraft/internal/logger"
	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
	"github.com/draftpilot/outlook-autodraft/internal/twilio"
)

// Notifier delivers the batch summary out of band.
type Notifier interface {
	Send(msg string) error
}

type smsNotifier struct {
	client twilio.Client
	from   string
	to     string
}

func NewSMSNotifier(accountSid, authToken, from, to string) (Notifier, error) {
	client, err := twilio.NewClient(accountSid, authToken)
	if err != nil {
		return nil, err
	}
	return &smsNotifier{client: client, from: from, to: to}, nil
}

func (n *smsNotifier) Send(msg string) error {
	_, err := n.client.SendSms(n.from, n.to, msg)
	return err
}

// notify sends the summary when anything was drafted. Failures are logged
// and never affect the batch result.
func notify(notifier Notifier, summary *types.Summary) {
	if notifier == nil || summary.Drafted == 0 {
		return
	}

	log := logger.GetLogger()
	msg := fmt.Sprintf("Draft scan %s: %d drafted, %d skipped, %d failed", summary.ScanID, summary.Drafted, summary.Skipped, summary.Failed)
	if err := notifier.Send(msg); err != nil {
		log.Errorw("an error ocurred when sending notification sms",
			"error", err)
	}
}
