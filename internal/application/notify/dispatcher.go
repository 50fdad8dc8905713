// Package notify routes "send this code to this identifier" to the right
// transport for the identifier's channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/infrastructure/sms"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
)

const emailSubject = "Your Verification Code"

const emailBodyTemplate = `<html>
  <body>
    <h2>Verification Code</h2>
    <p>Your verification code is: <strong>%s</strong></p>
    <p>This code will expire in %d minutes.</p>
    <p>If you didn't request this code, please ignore this email.</p>
  </body>
</html>`

// Dispatcher sends one-time codes over the channel-appropriate transport.
type Dispatcher struct {
	mailer    smtp.Mailer
	smsSender sms.Sender
	otpExpiry time.Duration
}

func NewDispatcher(mailer smtp.Mailer, smsSender sms.Sender, otpExpiry time.Duration) *Dispatcher {
	return &Dispatcher{mailer: mailer, smsSender: smsSender, otpExpiry: otpExpiry}
}

// Send delivers code to the identifier. Every transport failure surfaces
// uniformly as ErrNotificationFailed; callers compensate (rollback the stored
// code) rather than retry.
func (d *Dispatcher) Send(ctx context.Context, ident domain.Identifier, code string) error {
	var err error
	switch ident.Channel {
	case domain.ChannelEmail:
		body := fmt.Sprintf(emailBodyTemplate, code, int(d.otpExpiry.Minutes()))
		err = d.mailer.SendEmail(ident.Value, emailSubject, body)
	case domain.ChannelPhone:
		err = d.smsSender.SendSMS(ctx, ident.Value, "Your verification code is: "+code)
	default:
		return fmt.Errorf("unknown channel %q: %w", ident.Channel, domain.ErrNotificationFailed)
	}
	if err != nil {
		slog.Error("notification send failed", "channel", ident.Channel, "err", err)
		return fmt.Errorf("send via %s: %w", ident.Channel, domain.ErrNotificationFailed)
	}
	return nil
}
