package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"uploadgate/internal/upload"
)

// Index names the session table is expected to carry.
const (
	OwnerCreatedIndex  = "owner-created-index"
	OwnerIdemIndex     = "owner-idem-index"
	StatusCreatedIndex = "status-created-index"
)

// SessionStore persists upload sessions in DynamoDB. Optimistic
// concurrency is an explicit compare-and-swap: every write carries a
// condition on the version the caller read, so a stale write fails instead
// of silently overwriting a concurrent transition.
type SessionStore struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionStore(client *dynamodb.Client, tableName string) *SessionStore {
	return &SessionStore{
		client:    client,
		tableName: tableName,
	}
}

// Save inserts or updates a session. A session with Version 0 must not
// exist yet; any other write requires the stored version to match. On
// success the session's Version reflects the persisted value.
func (s *SessionStore) Save(ctx context.Context, session *upload.Session) error {
	next := *session
	next.Version = session.Version + 1
	next.CreatedAtNanos = next.CreatedAt.UnixNano()

	item, err := attributevalue.MarshalMap(next)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	if session.Version == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(id)")
	} else {
		input.ConditionExpression = aws.String("version = :v")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(session.Version, 10)},
		}
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("save session %s: %w", session.ID, upload.ErrVersionConflict)
		}
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}

	session.Version = next.Version
	return nil
}

// FindByID returns the session or (nil, nil) when the id is unknown.
func (s *SessionStore) FindByID(ctx context.Context, id string) (*upload.Session, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var session upload.Session
	if err := attributevalue.UnmarshalMap(out.Item, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	return &session, nil
}

// FindByOwnerAndIdempotencyKey resolves the idempotency fast path through
// the owner+key index. Terminal sessions may share the pair with the live
// one after an abort or failure, and the index returns equal-key items in
// no particular order, so the query filters on INITIATED and pages until a
// match instead of trusting the first item.
func (s *SessionStore) FindByOwnerAndIdempotencyKey(ctx context.Context, ownerID, key string) (*upload.Session, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(OwnerIdemIndex),
		KeyConditionExpression: aws.String("owner_id = :o AND idempotency_key = :k"),
		FilterExpression:       aws.String("#s = :s"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: ownerID},
			":k": &types.AttributeValueMemberS{Value: key},
			":s": &types.AttributeValueMemberS{Value: upload.StatusInitiated},
		},
	})

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("idempotency query for owner %s: %w", ownerID, err)
		}
		if len(out.Items) == 0 {
			continue
		}

		var session upload.Session
		if err := attributevalue.UnmarshalMap(out.Items[0], &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		return &session, nil
	}
	return nil, nil
}

// FindRecentByOwner returns up to limit sessions for the owner, newest
// first.
func (s *SessionStore) FindRecentByOwner(ctx context.Context, ownerID string, limit int) ([]upload.Session, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(OwnerCreatedIndex),
		KeyConditionExpression: aws.String("owner_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: ownerID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("recent query for owner %s: %w", ownerID, err)
	}

	return unmarshalSessions(out.Items)
}

// FindStaleInitiated returns up to limit INITIATED sessions created before
// cutoff, oldest first.
func (s *SessionStore) FindStaleInitiated(ctx context.Context, cutoff time.Time, limit int) ([]upload.Session, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(StatusCreatedIndex),
		KeyConditionExpression: aws.String("#s = :s AND created_at_ns < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":      &types.AttributeValueMemberS{Value: upload.StatusInitiated},
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.UnixNano(), 10)},
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("stale query: %w", err)
	}

	return unmarshalSessions(out.Items)
}

func unmarshalSessions(items []map[string]types.AttributeValue) ([]upload.Session, error) {
	sessions := make([]upload.Session, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}
	return sessions, nil
}
