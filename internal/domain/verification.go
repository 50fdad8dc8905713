package domain

import "time"

// VerificationCode is a pending one-time code for an identifier.
// PK: identifier (normalized value), SK: code.
// ExpiresAt is a Unix timestamp doubling as the DynamoDB TTL attribute; expiry
// is still checked at verification time because TTL deletion is lazy.
type VerificationCode struct {
	Identifier  string     `json:"identifier" dynamodbav:"identifier"`
	Code        string     `json:"code" dynamodbav:"code"`
	Channel     Channel    `json:"channel" dynamodbav:"channel"`
	PendingName string     `json:"pending_name,omitempty" dynamodbav:"pending_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt   int64      `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Consumed    bool       `json:"consumed" dynamodbav:"consumed"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty" dynamodbav:"consumed_at,omitempty"`
}
