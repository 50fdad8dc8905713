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

// ErrIdentifierClaimed is returned by ClaimIdentifier when another user
// already holds the identifier's pointer item.
var ErrIdentifierClaimed = errors.New("identifier already claimed")

// UserRepo owns the users table. Besides user items keyed by ULID it stores
// pointer items keyed by the channel-qualified identifier
// ("email#a@b.com" -> user_id); conditional writes on those pointers are how
// per-channel uniqueness is enforced, since DynamoDB cannot constrain a GSI.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put user: %v: %w", err, domain.ErrStorage)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %v: %w", err, domain.ErrStorage)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %v: %w", err, domain.ErrStorage)
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("update user: %v: %w", err, domain.ErrStorage)
	}
	return nil
}

// ResolveIdentifier returns the user_id the identifier key points to, or
// ErrNotFound when no user holds it yet.
func (r *UserRepo) ResolveIdentifier(ctx context.Context, key string) (string, error) {
	out, err := r.client.GetItem(ctx, consistentGet(r.tableName, strKey("user_id", key)))
	if err != nil {
		return "", fmt.Errorf("resolve identifier: %v: %w", err, domain.ErrStorage)
	}
	if out.Item == nil {
		return "", domain.ErrNotFound
	}
	ref, ok := out.Item["ref_user_id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("identifier pointer without ref_user_id: %w", domain.ErrStorage)
	}
	return ref.Value, nil
}

// ClaimIdentifier writes the pointer item for key conditioned on it not
// existing. Exactly one of two concurrent claimants wins; the loser gets
// ErrIdentifierClaimed and must re-resolve.
func (r *UserRepo) ClaimIdentifier(ctx context.Context, key, userID string) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"user_id":     &types.AttributeValueMemberS{Value: key},
			"ref_user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrIdentifierClaimed
		}
		return fmt.Errorf("claim identifier: %v: %w", err, domain.ErrStorage)
	}
	return nil
}
