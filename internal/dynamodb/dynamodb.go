package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type AttributeValue struct {
	types.AttributeValue
}

type Client interface {
	PutItem(ctx context.Context, tableName string, item map[string]AttributeValue) error
}

func NewClient(region string) (Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &dynamodbClientImpl{
		cfg: cfg,
	}, nil
}

type dynamodbClientImpl struct {
	cfg aws.Config
}

func (d *dynamodbClientImpl) PutItem(ctx context.Context, tableName string, item map[string]AttributeValue) error {
	dynamo := dynamodb.NewFromConfig(d.cfg)

	itemConv := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		itemConv[k] = v.AttributeValue
	}

	params := &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      itemConv,
	}

	_, err := dynamo.PutItem(ctx, params)
	return err
}
