package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/hitaccum/blobstore"
)

// DDBClient is the subset of *dynamodb.Client the ledger uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// ErrStaleRecord is returned when the ledger already holds a newer
// completion for the same URI.
var ErrStaleRecord = errors.New("s3: ledger holds a newer completion record")

// Record describes one completed output table.
type Record struct {
	URI         string
	Records     int64
	Bytes       int64
	Format      string
	Digest      string
	CompletedAt time.Time
}

// Ledger stores completion records in DynamoDB, one item per output URI.
//
// Table schema:
//   - Partition key: uri (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name hitaccum-outputs \
//	  --attribute-definitions AttributeName=uri,AttributeType=S \
//	  --key-schema AttributeName=uri,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type Ledger struct {
	client DDBClient
	table  string
}

// NewLedger creates a ledger on table.
func NewLedger(client DDBClient, table string) *Ledger {
	return &Ledger{client: client, table: table}
}

// NewLedgerFromConfig loads the default AWS config and creates a ledger.
func NewLedgerFromConfig(ctx context.Context, table, region string) (*Ledger, error) {
	var cfgFns []func(*config.LoadOptions) error
	if region != "" {
		cfgFns = append(cfgFns, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, cfgFns...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return NewLedger(dynamodb.NewFromConfig(awsCfg), table), nil
}

// Commit writes rec unless the table already holds a record for the same URI
// completed at or after rec.CompletedAt.
func (l *Ledger) Commit(ctx context.Context, rec Record) error {
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}
	ts := strconv.FormatInt(rec.CompletedAt.UnixNano(), 10)

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			"uri":          &types.AttributeValueMemberS{Value: rec.URI},
			"records":      &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.Records, 10)},
			"bytes":        &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.Bytes, 10)},
			"format":       &types.AttributeValueMemberS{Value: rec.Format},
			"digest":       &types.AttributeValueMemberS{Value: rec.Digest},
			"completed_at": &types.AttributeValueMemberN{Value: ts},
		},
		ConditionExpression: aws.String("attribute_not_exists(uri) OR completed_at < :ts"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ts": &types.AttributeValueMemberN{Value: ts},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrStaleRecord
		}
		return fmt.Errorf("s3: commit ledger record: %w", err)
	}
	return nil
}

// Get returns the completion record of uri, or blobstore.ErrNotFound.
func (l *Ledger) Get(ctx context.Context, uri string) (*Record, error) {
	resp, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.table),
		Key:            map[string]types.AttributeValue{"uri": &types.AttributeValueMemberS{Value: uri}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: read ledger record: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, blobstore.ErrNotFound
	}

	rec := &Record{URI: uri}
	if rec.Records, err = numberAttr(resp.Item, "records"); err != nil {
		return nil, err
	}
	if rec.Bytes, err = numberAttr(resp.Item, "bytes"); err != nil {
		return nil, err
	}
	ts, err := numberAttr(resp.Item, "completed_at")
	if err != nil {
		return nil, err
	}
	rec.CompletedAt = time.Unix(0, ts)
	if v, ok := resp.Item["format"].(*types.AttributeValueMemberS); ok {
		rec.Format = v.Value
	}
	if v, ok := resp.Item["digest"].(*types.AttributeValueMemberS); ok {
		rec.Digest = v.Value
	}
	return rec, nil
}

func numberAttr(item map[string]types.AttributeValue, name string) (int64, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("s3: ledger attribute %s missing or not a number", name)
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("s3: ledger attribute %s: %w", name, err)
	}
	return n, nil
}
