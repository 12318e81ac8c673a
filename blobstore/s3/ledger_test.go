package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDDBClient struct {
	mock.Mock
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func TestLedger_Commit(t *testing.T) {
	ddb := new(mockDDBClient)
	ledger := NewLedger(ddb, "hitaccum-outputs")
	done := time.Unix(1700000000, 5)

	ddb.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		uri := in.Item["uri"].(*types.AttributeValueMemberS).Value
		records := in.Item["records"].(*types.AttributeValueMemberN).Value
		ts := in.ExpressionAttributeValues[":ts"].(*types.AttributeValueMemberN).Value
		return aws.ToString(in.TableName) == "hitaccum-outputs" &&
			uri == "s3://results/pairs.tsv" &&
			records == "42" &&
			ts == "1700000000000000005" &&
			aws.ToString(in.ConditionExpression) == "attribute_not_exists(uri) OR completed_at < :ts"
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	err := ledger.Commit(context.Background(), Record{
		URI:         "s3://results/pairs.tsv",
		Records:     42,
		Bytes:       1024,
		Format:      "tsv",
		CompletedAt: done,
	})
	require.NoError(t, err)
	ddb.AssertExpectations(t)
}

func TestLedger_CommitStale(t *testing.T) {
	ddb := new(mockDDBClient)
	ledger := NewLedger(ddb, "t")

	ddb.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}).Once()

	err := ledger.Commit(context.Background(), Record{URI: "s3://b/k"})
	require.ErrorIs(t, err, ErrStaleRecord)
}

func TestLedger_CommitError(t *testing.T) {
	ddb := new(mockDDBClient)
	ledger := NewLedger(ddb, "t")

	boom := errors.New("throttled")
	ddb.On("PutItem", mock.Anything, mock.Anything).Return(nil, boom).Once()

	err := ledger.Commit(context.Background(), Record{URI: "s3://b/k"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrStaleRecord)
}

func TestLedger_Get(t *testing.T) {
	ddb := new(mockDDBClient)
	ledger := NewLedger(ddb, "t")

	ddb.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.Key["uri"].(*types.AttributeValueMemberS).Value == "s3://b/found"
	})).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"uri":          &types.AttributeValueMemberS{Value: "s3://b/found"},
		"records":      &types.AttributeValueMemberN{Value: "3"},
		"bytes":        &types.AttributeValueMemberN{Value: "99"},
		"format":       &types.AttributeValueMemberS{Value: "jsonl"},
		"digest":       &types.AttributeValueMemberS{Value: "abc"},
		"completed_at": &types.AttributeValueMemberN{Value: "1000"},
	}}, nil).Once()

	ddb.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.Key["uri"].(*types.AttributeValueMemberS).Value == "s3://b/missing"
	})).Return(&dynamodb.GetItemOutput{}, nil).Once()

	rec, err := ledger.Get(context.Background(), "s3://b/found")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Records)
	assert.Equal(t, int64(99), rec.Bytes)
	assert.Equal(t, "jsonl", rec.Format)
	assert.Equal(t, "abc", rec.Digest)
	assert.Equal(t, time.Unix(0, 1000), rec.CompletedAt)

	_, err = ledger.Get(context.Background(), "s3://b/missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	ddb.AssertExpectations(t)
}
