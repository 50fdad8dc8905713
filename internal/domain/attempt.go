package domain

import "time"

// LoginAttempt is one row of the append-only attempt log the rate limiter
// counts over. PK: identifier, SK: attempt_id (a ULID, so range conditions on
// the sort key are time-range conditions).
type LoginAttempt struct {
	Identifier string    `json:"identifier" dynamodbav:"identifier"`
	AttemptID  string    `json:"attempt_id" dynamodbav:"attempt_id"`
	IPAddress  string    `json:"ip_address" dynamodbav:"ip_address"`
	Success    bool      `json:"success" dynamodbav:"success"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}
