package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/shiftdesk/internal/store"
)

var _ store.BlobStore = (*BlobStore)(nil)

// DynamoDBAPI is the subset of the DynamoDB client used by BlobStore.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// blobItem is the DynamoDB item layout; "key" is the partition key.
type blobItem struct {
	Key       string `dynamodbav:"key"`
	Value     []byte `dynamodbav:"value"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
}

// BlobStore is a DynamoDB implementation of store.BlobStore
type BlobStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewBlobStore creates a new DynamoDB blob store
func NewBlobStore(client DynamoDBAPI, tableName string) *BlobStore {
	return &BlobStore{
		client:    client,
		tableName: tableName,
	}
}

// Get retrieves the value stored under key
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	// Only the value is needed, updated_at stays on the server
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("key"), expression.Name("value"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build projection: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return nil, wrapAWSError(err, "failed to get blob")
	}

	if result.Item == nil {
		return nil, store.ErrKeyNotFound
	}

	var item blobItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blob: %w", err)
	}

	return item.Value, nil
}

// Put stores value under key
func (s *BlobStore) Put(ctx context.Context, key string, value []byte) error {
	item, err := attributevalue.MarshalMap(blobItem{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal blob: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return wrapAWSError(err, "failed to put blob")
	}

	log.Debug().
		Str("key", key).
		Int("bytes", len(value)).
		Msg("blob stored")

	return nil
}

// Delete removes key
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return wrapAWSError(err, "failed to delete blob")
	}

	return nil
}
