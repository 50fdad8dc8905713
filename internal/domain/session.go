package domain

import "time"

// Session is a logical login instance, tracked independently of tokens.
// One user may hold multiple concurrent sessions.
type Session struct {
	SessionID      string     `json:"id" dynamodbav:"session_id"`
	UserID         string     `json:"user_id" dynamodbav:"user_id"`
	DeviceInfo     string     `json:"device_info,omitempty" dynamodbav:"device_info,omitempty"`
	IsActive       bool       `json:"is_active" dynamodbav:"is_active"`
	LastActivityAt time.Time  `json:"last_activity_at" dynamodbav:"last_activity_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty" dynamodbav:"ended_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at" dynamodbav:"created_at"`
}
