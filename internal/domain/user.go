package domain

import "time"

type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Email         string    `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone         string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	PhoneVerified bool      `json:"phone_verified" dynamodbav:"phone_verified"`
	Name          string    `json:"name,omitempty" dynamodbav:"name,omitempty"`
	AuthType      Channel   `json:"auth_type" dynamodbav:"auth_type"` // channel that drove the last verification
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}
