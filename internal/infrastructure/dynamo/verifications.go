package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-otp-auth/internal/domain"
)

// VerificationRepo owns the pending one-time codes.
// PK: identifier (normalized value), SK: code.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

// Store inserts a new pending record. If the notification-send that follows
// fails, the caller must compensate with Rollback; there is no transaction
// spanning the store and the external send.
func (r *VerificationRepo) Store(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("store verification: %v: %w", err, domain.ErrStorage)
	}
	return nil
}

// Rollback deletes the record Store just inserted. Compensating action for a
// failed notification send.
func (r *VerificationRepo) Rollback(ctx context.Context, identifier, code string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("identifier", identifier, "code", code),
	})
	if err != nil {
		return fmt.Errorf("rollback verification: %v: %w", err, domain.ErrStorage)
	}
	return nil
}

// Consume looks up the unconsumed record matching identifier+code, checks its
// expiry against the current time, and atomically marks it consumed. The
// conditional update is what prevents a code being spent twice under
// concurrent verify calls: the losing writer gets a conditional-check failure
// and is told the code is invalid, same as a missing row.
func (r *VerificationRepo) Consume(ctx context.Context, identifier, code string) (*domain.VerificationCode, error) {
	out, err := r.client.GetItem(ctx, consistentGet(r.tableName, compositeKey("identifier", identifier, "code", code)))
	if err != nil {
		return nil, fmt.Errorf("lookup verification: %v: %w", err, domain.ErrStorage)
	}
	if out.Item == nil {
		return nil, domain.ErrInvalidCode
	}

	var v domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, fmt.Errorf("unmarshal verification: %v: %w", err, domain.ErrStorage)
	}
	if v.Consumed {
		return nil, domain.ErrInvalidCode
	}
	// Expired-but-matching is a distinct failure from not-matching.
	if v.ExpiresAt < time.Now().Unix() {
		return nil, domain.ErrCodeExpired
	}

	now := time.Now().UTC()
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldConsumed:   true,
		fieldConsumedAt: now,
	})
	if err != nil {
		return nil, err
	}
	ue.Values[":false"] = &types.AttributeValueMemberBOOL{Value: false}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("identifier", identifier, "code", code),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("consumed = :false"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Lost the race to a concurrent consume.
			return nil, domain.ErrInvalidCode
		}
		return nil, fmt.Errorf("consume verification: %v: %w", err, domain.ErrStorage)
	}

	v.Consumed = true
	v.ConsumedAt = &now
	return &v, nil
}
