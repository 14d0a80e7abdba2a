package scan

import (
	"context"
	"strconv"
	"time"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/draftpilot/outlook-autodraft/internal/dynamodb"
	"github.com/draftpilot/outlook-autodraft/internal/logger"
	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

// ScanLogger records one audit item per invocation. The record is
// write-only: eligibility never reads it, the dispatcher stays stateless.
type ScanLogger interface {
	Record(ctx context.Context, summary *types.Summary) error
}

type dynamoScanLog struct {
	client dynamodb.Client
	table  string
}

func NewDynamoScanLog(region, table string) (ScanLogger, error) {
	client, err := dynamodb.NewClient(region)
	if err != nil {
		return nil, err
	}
	return &dynamoScanLog{client: client, table: table}, nil
}

func (l *dynamoScanLog) Record(ctx context.Context, summary *types.Summary) error {
	item := map[string]dynamodb.AttributeValue{
		"Id":        {AttributeValue: &ddbtypes.AttributeValueMemberS{Value: summary.ScanID}},
		"StartedAt": {AttributeValue: &ddbtypes.AttributeValueMemberS{Value: summary.StartedAt.Format(time.RFC3339)}},
		"Scanned":   numberAttr(summary.Scanned),
		"Eligible":  numberAttr(summary.Eligible),
		"Drafted":   numberAttr(summary.Drafted),
		"Skipped":   numberAttr(summary.Skipped),
		"Failed":    numberAttr(summary.Failed),
	}

	return l.client.PutItem(ctx, l.table, item)
}

func numberAttr(n int) dynamodb.AttributeValue {
	return dynamodb.AttributeValue{AttributeValue: &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(n)}}
}

func recordScan(ctx context.Context, scanLog ScanLogger, summary *types.Summary) {
	if scanLog == nil {
		return
	}

	if err := scanLog.Record(ctx, summary); err != nil {
		logger.GetLogger().Errorw("recording scan summary failed",
			"error", err,
			"scan_id", summary.ScanID,
		)
	}
}
