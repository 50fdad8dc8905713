package http

import (
	"github.com/go-otp-auth/internal/infrastructure/dynamo"
	"github.com/go-otp-auth/internal/infrastructure/sms"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	VerificationRepo *dynamo.VerificationRepo
	RefreshTokenRepo *dynamo.RefreshTokenRepo
	AttemptRepo      *dynamo.AttemptRepo
	Mailer           smtp.Mailer
	SMSSender        sms.Sender
}
