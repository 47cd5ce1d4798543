package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/teemow/autopilot/internal/gmail"
)

const charset = "UTF-8"

// SESAPI is the subset of the SES v2 client used by SESMailer.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends mail through Amazon SES.
type SESMailer struct {
	api     SESAPI
	from    string
	replyTo string
}

// NewSESMailer loads the default AWS credential chain for region.
func NewSESMailer(ctx context.Context, region, from, replyTo string) (*SESMailer, error) {
	if from == "" {
		return nil, fmt.Errorf("mail.from is required for the ses provider")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESMailerWithAPI(sesv2.NewFromConfig(awsCfg), from, replyTo), nil
}

// NewSESMailerWithAPI wraps an existing SES client.
func NewSESMailerWithAPI(api SESAPI, from, replyTo string) *SESMailer {
	return &SESMailer{api: api, from: from, replyTo: replyTo}
}

// Send delivers msg as a simple SES message with HTML and text parts.
func (m *SESMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charset)}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String(charset)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
				Body:    body,
			},
		},
	}
	if msg.Kind != "" {
		input.Content.Simple.Headers = []types.MessageHeader{
			{Name: aws.String(gmail.AutomatedHeader), Value: aws.String(msg.Kind)},
		}
	}
	if replyTo := firstNonEmpty(msg.ReplyTo, m.replyTo); replyTo != "" {
		input.ReplyToAddresses = []string{replyTo}
	}

	out, err := m.api.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses send failed: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
