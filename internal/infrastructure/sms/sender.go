// Package sms provides the SMS transports: an HTTP gateway client and an AWS
// SNS publisher, both behind the Sender contract.
package sms

import "context"

// Sender delivers an SMS message to a phone number.
type Sender interface {
	SendSMS(ctx context.Context, to, message string) error
}
