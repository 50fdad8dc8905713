package domain

import "time"

// TokenPair is the signed credentials returned by a successful verification.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken is the server-side record of an issued refresh token, kept so
// it can be revoked independently of its signature validity.
// PK: token. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type RefreshToken struct {
	Token     string    `json:"-" dynamodbav:"token"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	Revoked   bool      `json:"revoked" dynamodbav:"revoked"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// AuthResult is the composite returned by a successful verify.
type AuthResult struct {
	User    *User      `json:"user"`
	Tokens  *TokenPair `json:"tokens"`
	Session *Session   `json:"session"`
}
