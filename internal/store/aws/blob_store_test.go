package aws

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/shiftdesk/internal/store"
	"github.com/wolfeidau/shiftdesk/internal/store/storetest"
)

// fakeDynamoDB keeps items in a map keyed by the "key" attribute.
type fakeDynamoDB struct {
	mu    sync.Mutex
	items   map[string]map[string]types.AttributeValue
	err     error
	lastGet *dynamodb.GetItemInput
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(attrs map[string]types.AttributeValue) string {
	return attrs["key"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGet = in
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoDBBlobStore(t *testing.T) {
	storetest.RunBlobStoreSuite(t, NewBlobStore(newFakeDynamoDB(), "shiftdesk_blobs"))
}

func TestDynamoDBBlobStore_Throttled(t *testing.T) {
	fake := newFakeDynamoDB()
	fake.err = &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	st := NewBlobStore(fake, "shiftdesk_blobs")

	err := st.Put(context.Background(), store.KeyTasks, []byte("[]"))
	require.ErrorIs(t, err, store.ErrThrottled)

	_, err = st.Get(context.Background(), store.KeyTasks)
	require.ErrorIs(t, err, store.ErrThrottled)
}

func TestWrapAWSError(t *testing.T) {
	require.NoError(t, wrapAWSError(nil, "noop"))

	err := wrapAWSError(errors.New("ThrottlingException: rate exceeded"), "put")
	require.ErrorIs(t, err, store.ErrThrottled)

	cause := errors.New("access denied")
	err = wrapAWSError(cause, "put")
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, store.ErrThrottled)
}

func TestDynamoDBBlobStore_GetProjectsValue(t *testing.T) {
	fake := newFakeDynamoDB()
	st := NewBlobStore(fake, "shiftdesk_blobs")
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, store.KeyThemeMode, []byte("normal")))
	value, err := st.Get(ctx, store.KeyThemeMode)
	require.NoError(t, err)
	require.Equal(t, []byte("normal"), value)

	require.NotNil(t, fake.lastGet.ProjectionExpression)
	names := make([]string, 0, len(fake.lastGet.ExpressionAttributeNames))
	for _, name := range fake.lastGet.ExpressionAttributeNames {
		names = append(names, name)
	}
	require.ElementsMatch(t, []string{"key", "value"}, names)
}
