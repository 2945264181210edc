package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

// SESOptions configures the SESv2 sender. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
type SESOptions struct {
	Region           string
	From             string
	ReplyTo          string
	ConfigurationSet string
	AccessKeyID      string
	SecretAccessKey  string
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient sends booking mail through AWS SESv2.
type SESClient struct {
	api  sesAPI
	opts SESOptions
}

func NewSESClient(ctx context.Context, opts SESOptions) (*SESClient, error) {
	if opts.Region == "" {
		return nil, fmt.Errorf("ses region is required")
	}
	if opts.From == "" {
		return nil, fmt.Errorf("ses sender is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESClient{api: sesv2.NewFromConfig(awsCfg), opts: opts}, nil
}

func (c *SESClient) Send(ctx context.Context, recipient string, msg Message) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return fmt.Errorf("recipient is required")
	}

	if _, err := c.api.SendEmail(ctx, c.input(recipient, msg)); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("recipient", recipient).
			Str("event", msg.Event).
			Msg("Failed to send booking email")
		return fmt.Errorf("send ses email: %w", err)
	}
	return nil
}

func (c *SESClient) input(recipient string, msg Message) *sesv2.SendEmailInput {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.opts.From),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if c.opts.ReplyTo != "" {
		in.ReplyToAddresses = []string{c.opts.ReplyTo}
	}
	if c.opts.ConfigurationSet != "" {
		in.ConfigurationSetName = aws.String(c.opts.ConfigurationSet)
	}
	if msg.Event != "" {
		// SES tag values only allow letters, digits, '_' and '-'.
		in.EmailTags = []types.MessageTag{{
			Name:  aws.String("event"),
			Value: aws.String(strings.NewReplacer(".", "_").Replace(msg.Event)),
		}}
	}
	return in
}
