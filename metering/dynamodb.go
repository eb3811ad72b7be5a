package metering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/linolazarous/cursorcode-ai/core"
)

const ttlDuration = 400 * 24 * time.Hour

// dynamodbAPI is the subset of *dynamodb.Client used by DynamoDBStore.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBStore writes usage records to a single table keyed by
// PK=USER#<id>, SK=USAGE#<timestamp>#<request id>.
type DynamoDBStore struct {
	api       dynamodbAPI
	tableName string
}

// NewDynamoDBStore wraps api and table.
func NewDynamoDBStore(api dynamodbAPI, tableName string) (*DynamoDBStore, error) {
	if api == nil {
		return nil, errors.New("metering: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("metering: table name must not be empty")
	}
	return &DynamoDBStore{api: api, tableName: tableName}, nil
}

func userPK(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return "USER#" + userID
}

func usageSK(r Record) string {
	return "USAGE#" + r.Timestamp.UTC().Format(time.RFC3339Nano) + "#" + r.RequestID
}

// Put implements Store. A record id is written at most once so retried
// deliveries do not double count.
func (s *DynamoDBStore) Put(ctx context.Context, r Record) error {
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                recordItem(r),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var exists *types.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("metering: put usage: %w", err)
	}
	return nil
}

// ForUser returns the most recent records of a user, newest first.
func (s *DynamoDBStore) ForUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: "USAGE#"},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	out, err := s.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("metering: query usage: %w", err)
	}
	records := make([]Record, 0, len(out.Items))
	for _, item := range out.Items {
		r, err := itemToRecord(item)
		if err != nil {
			return nil, fmt.Errorf("metering: decode usage: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

func recordItem(r Record) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: userPK(r.UserID)},
		"SK":         &types.AttributeValueMemberS{Value: usageSK(r)},
		"requestId":  &types.AttributeValueMemberS{Value: r.RequestID},
		"userId":     &types.AttributeValueMemberS{Value: r.UserID},
		"projectId":  &types.AttributeValueMemberS{Value: r.ProjectID},
		"agentType":  &types.AttributeValueMemberS{Value: string(r.AgentType)},
		"tokensUsed": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", r.TokensUsed)},
		"model":      &types.AttributeValueMemberS{Value: r.Model},
		"timestamp":  &types.AttributeValueMemberS{Value: r.Timestamp.UTC().Format(time.RFC3339Nano)},
		"ttl":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", r.Timestamp.Add(ttlDuration).Unix())},
	}
}

func itemToRecord(item map[string]types.AttributeValue) (Record, error) {
	var r Record
	var err error
	if r.RequestID, err = strAttr(item, "requestId"); err != nil {
		return r, err
	}
	if r.Model, err = strAttr(item, "model"); err != nil {
		return r, err
	}
	agent, err := strAttr(item, "agentType")
	if err != nil {
		return r, err
	}
	r.AgentType = core.AgentType(agent)
	r.UserID, _ = strAttr(item, "userId")
	r.ProjectID, _ = strAttr(item, "projectId")
	if n, ok := item["tokensUsed"].(*types.AttributeValueMemberN); ok {
		if _, err := fmt.Sscanf(n.Value, "%d", &r.TokensUsed); err != nil {
			return r, fmt.Errorf("parse tokensUsed: %w", err)
		}
	}
	if ts, err := strAttr(item, "timestamp"); err == nil {
		r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return r, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}
