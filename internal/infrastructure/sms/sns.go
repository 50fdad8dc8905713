package sms

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-otp-auth/internal/config"
)

// SNSSender publishes SMS messages via AWS SNS. Alternative to the HTTP
// gateway, selected with SMS_PROVIDER=sns.
type SNSSender struct {
	client *sns.Client
}

func NewSNSSender(cfg *config.Config) (*SNSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &SNSSender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *SNSSender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &message,
	})
	return err
}
