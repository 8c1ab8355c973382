package awsutils

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"sms-connector/internal/smtp"
)

type sesAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SesEmailClient delivers the same MIME message the SMTP client would send,
// through the SES API instead.
type SesEmailClient struct {
	client  sesAPI
	builder *smtp.MessageBuilder
}

func NewSesEmailClient(cfg aws.Config, builder *smtp.MessageBuilder) *SesEmailClient {
	return &SesEmailClient{
		client:  ses.NewFromConfig(cfg),
		builder: builder,
	}
}

func (c *SesEmailClient) Send(ctx context.Context, msg smtp.Message) error {
	raw, err := c.builder.Build(msg)
	if err != nil {
		return err
	}

	sesInput := &ses.SendRawEmailInput{
		Source:       aws.String(c.builder.From().Address),
		Destinations: []string{msg.To},
		RawMessage: &types.RawMessage{
			Data: raw,
		},
	}

	_, err = c.client.SendRawEmail(ctx, sesInput)
	return err
}
