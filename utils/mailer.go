package utils

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sony/gobreaker/v2"
)

type SESMailer struct {
	client  *ses.Client
	sender  string
	breaker *gobreaker.CircuitBreaker[*ses.SendEmailOutput]
}

func NewSESMailer(cfg aws.Config, sender string) *SESMailer {
	return &SESMailer{
		client:  ses.NewFromConfig(cfg),
		sender:  sender,
		breaker: NewBreaker[*ses.SendEmailOutput]("ses"),
	}
}

// Send delivers a plain-text email.
func (m *SESMailer) Send(ctx context.Context, to, subject, body string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.sender),
	}

	if _, err := m.breaker.Execute(func() (*ses.SendEmailOutput, error) {
		return m.client.SendEmail(ctx, input)
	}); err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}
