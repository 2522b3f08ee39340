// Package repository persists completed comparisons to DynamoDB. The table is
// a write-mostly audit log: records are never read back into the comparison
// pipeline, only listed for the history view. Records expire via TTL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"plancompare-agent/internal/domain"
)

const (
	// All records share one partition; the table holds a bounded, TTL-pruned
	// log for a single-tenant service, so the hot-partition tradeoff is fine.
	logPK       = "CMP#LOG"
	skPrefixRec = "REC#"
	ttlDuration = 30 * 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ReadWriter defines the comparison-history operations consumed upstream.
type ReadWriter interface {
	SaveComparison(ctx context.Context, rec domain.Comparison) error
	RecentComparisons(ctx context.Context, limit int) ([]domain.Comparison, error)
}

// Client wraps a DynamoDB table holding the comparison log.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// recSK returns the sort key for a record: timestamp first so recency queries
// sort naturally, record ID appended to break same-instant ties.
func recSK(ts time.Time, id string) string {
	return skPrefixRec + ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// SaveComparison stamps keys and timestamps onto the record and writes it.
func (c *Client) SaveComparison(ctx context.Context, rec domain.Comparison) error {
	if strings.TrimSpace(rec.ComparisonID) == "" {
		return errors.New("repository: SaveComparison: comparison ID is required")
	}

	now := time.Now().UTC()
	rec.PK = logPK
	rec.SK = recSK(now, rec.ComparisonID)
	rec.CreatedAt = now.Format(time.RFC3339)
	rec.TTL = ttlValue()

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                comparisonItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveComparison: %w", err)
	}
	return nil
}

// RecentComparisons returns up to limit records, newest first.
func (c *Client) RecentComparisons(ctx context.Context, limit int) ([]domain.Comparison, error) {
	if limit <= 0 {
		return nil, errors.New("repository: RecentComparisons: limit must be positive")
	}

	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: logPK},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixRec},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: RecentComparisons query: %w", err)
	}

	recs := make([]domain.Comparison, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToComparison(item)
		if err != nil {
			return nil, fmt.Errorf("repository: RecentComparisons unmarshal: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// comparisonItem converts a Comparison to a DynamoDB attribute map.
func comparisonItem(rec domain.Comparison) map[string]types.AttributeValue {
	names := make([]types.AttributeValue, 0, len(rec.PlanNames))
	for _, name := range rec.PlanNames {
		names = append(names, &types.AttributeValueMemberS{Value: name})
	}
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: rec.PK},
		"SK":           &types.AttributeValueMemberS{Value: rec.SK},
		"comparisonId": &types.AttributeValueMemberS{Value: rec.ComparisonID},
		"question":     &types.AttributeValueMemberS{Value: rec.Question},
		// a list, not a string set: selection order matters and may be empty
		"planNames": &types.AttributeValueMemberL{Value: names},
		"answer":    &types.AttributeValueMemberS{Value: rec.Answer},
		"status":    &types.AttributeValueMemberS{Value: rec.Status},
		"createdAt": &types.AttributeValueMemberS{Value: rec.CreatedAt},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.TTL)},
	}
}

// itemToComparison converts a DynamoDB attribute map to a Comparison.
func itemToComparison(item map[string]types.AttributeValue) (domain.Comparison, error) {
	id, err := strAttr(item, "comparisonId")
	if err != nil {
		return domain.Comparison{}, err
	}
	question, err := strAttr(item, "question")
	if err != nil {
		return domain.Comparison{}, err
	}
	answer, _ := strAttr(item, "answer")       // allow empty
	status, _ := strAttr(item, "status")       // allow empty
	createdAt, _ := strAttr(item, "createdAt") // allow empty

	var names []string
	if v, ok := item["planNames"].(*types.AttributeValueMemberL); ok {
		for _, el := range v.Value {
			if s, ok := el.(*types.AttributeValueMemberS); ok {
				names = append(names, s.Value)
			}
		}
	}

	return domain.Comparison{
		ComparisonID: id,
		Question:     question,
		PlanNames:    names,
		Answer:       answer,
		Status:       status,
		CreatedAt:    createdAt,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
