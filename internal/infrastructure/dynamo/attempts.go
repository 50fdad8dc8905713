package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/id"
)

// batchDeleteMax is DynamoDB's BatchWriteItem request limit.
const batchDeleteMax = 25

// AttemptRepo owns the append-only login attempt log.
// PK: identifier, SK: attempt_id (ULID). Because ULIDs sort by creation time,
// window counts and retention pruning are plain sort-key range conditions.
type AttemptRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAttemptRepo(client *dynamodb.Client, tableName string) *AttemptRepo {
	return &AttemptRepo{client: client, tableName: tableName}
}

func (r *AttemptRepo) Put(ctx context.Context, a *domain.LoginAttempt) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put attempt: %v: %w", err, domain.ErrStorage)
	}
	return nil
}

// CountSince returns the number of attempts for identifier created at or
// after since.
func (r *AttemptRepo) CountSince(ctx context.Context, identifier string, since time.Time) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("identifier = :id AND attempt_id >= :floor"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":    &types.AttributeValueMemberS{Value: identifier},
			":floor": &types.AttributeValueMemberS{Value: id.MinAt(since)},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, fmt.Errorf("count attempts: %v: %w", err, domain.ErrStorage)
	}
	return int(out.Count), nil
}

// DeleteOlderThan removes attempts for identifier created before cutoff.
// Retention housekeeping, invoked opportunistically by the limiter's write
// path.
func (r *AttemptRepo) DeleteOlderThan(ctx context.Context, identifier string, cutoff time.Time) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("identifier = :id AND attempt_id < :ceiling"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id":      &types.AttributeValueMemberS{Value: identifier},
			":ceiling": &types.AttributeValueMemberS{Value: id.MinAt(cutoff)},
		},
		ProjectionExpression: aws.String("identifier, attempt_id"),
	})
	if err != nil {
		return fmt.Errorf("query stale attempts: %v: %w", err, domain.ErrStorage)
	}

	for start := 0; start < len(out.Items); start += batchDeleteMax {
		end := start + batchDeleteMax
		if end > len(out.Items) {
			end = len(out.Items)
		}
		reqs := make([]types.WriteRequest, 0, end-start)
		for _, item := range out.Items[start:end] {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: item},
			})
		}
		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: reqs},
		})
		if err != nil {
			return fmt.Errorf("delete stale attempts: %v: %w", err, domain.ErrStorage)
		}
	}
	return nil
}
