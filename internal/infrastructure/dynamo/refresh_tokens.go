package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-otp-auth/internal/domain"
)

// RefreshTokenRepo owns the server-side refresh token records.
// PK: token.
type RefreshTokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRefreshTokenRepo(client *dynamodb.Client, tableName string) *RefreshTokenRepo {
	return &RefreshTokenRepo{client: client, tableName: tableName}
}

func (r *RefreshTokenRepo) Put(ctx context.Context, t *domain.RefreshToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put refresh token: %v: %w", err, domain.ErrStorage)
	}
	return nil
}

func (r *RefreshTokenRepo) Get(ctx context.Context, token string) (*domain.RefreshToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %v: %w", err, domain.ErrStorage)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("refresh token: %w", domain.ErrNotFound)
	}
	var t domain.RefreshToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token: %v: %w", err, domain.ErrStorage)
	}
	return &t, nil
}

// Revoke flips the revoked flag. The token keeps verifying cryptographically;
// this record is what makes it unusable anyway.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldRevoked: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("token", token),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("revoke refresh token: %v: %w", err, domain.ErrStorage)
	}
	return nil
}
