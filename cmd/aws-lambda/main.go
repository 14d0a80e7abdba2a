package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/draftpilot/outlook-autodraft/internal/config"
	"github.com/draftpilot/outlook-autodraft/internal/logger"
	"github.com/draftpilot/outlook-autodraft/internal/scan"
)

var GitCommit string

func HandleRequest(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	log := logger.GetLogger()
	defer log.Sync()

	log.Infow("starting scheduled scan", "commit", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	deps, cleanup, err := scan.Build(ctx, cfg)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	defer cleanup()

	summary, err := scan.Run(ctx, cfg, deps)
	if err != nil {
		return jsonResponse(500, map[string]interface{}{
			"error":   err.Error(),
			"summary": summary,
		}), nil
	}

	return jsonResponse(200, summary), nil
}

func jsonResponse(status int, body interface{}) events.APIGatewayProxyResponse {
	payload, _ := json.Marshal(body)

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}
}

func main() {
	lambda.Start(HandleRequest)
}
