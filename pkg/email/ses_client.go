package email

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
)

type SESClient struct {
	client *ses.Client
	config *Config
	logger Logger
}

// NewSESClient uses static credentials when both keys are set and the
// default AWS credential chain otherwise.
func NewSESClient(emailConfig *Config, logger Logger) (*SESClient, error) {
	if (emailConfig.SESAccessKey == "") != (emailConfig.SESSecretKey == "") {
		return nil, NewError("create_ses_client", SES, ErrProviderNotConfigured)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := []func(*config.LoadOptions) error{config.WithRegion(emailConfig.SESRegion)}
	if emailConfig.SESAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			emailConfig.SESAccessKey,
			emailConfig.SESSecretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, NewError("create_ses_config", SES, err)
	}

	client := &SESClient{
		client: ses.NewFromConfig(cfg),
		config: emailConfig,
		logger: logger,
	}

	if _, err := client.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return nil, NewError("ping", SES, err)
	}

	return client, nil
}

func (s *SESClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, s.config.DefaultFrom); err != nil {
		return err
	}

	send, err := s.prepare(message)
	if err != nil {
		return NewError("compose", SES, err)
	}
	err = withRetry(ctx, s.config.MaxRetries, s.config.RetryDelay, s.logger, func() error {
		return classifySESError(send(ctx))
	})
	if err != nil {
		return NewError("send", SES, err)
	}

	s.logger.Debug("Email sent via SES",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}

func (s *SESClient) SendBulk(ctx context.Context, messages []*Message) error {
	return sendEach(ctx, s, messages)
}

func (s *SESClient) ValidateEmail(email string) error {
	return ValidateEmail(email)
}

func (s *SESClient) Provider() Provider {
	return SES
}

func (s *SESClient) Close() error {
	return nil
}

// prepare picks the simple SendEmail call when it can carry the message and
// falls back to a raw MIME send for attachments and custom headers.
func (s *SESClient) prepare(message *Message) (func(context.Context) error, error) {
	if len(message.Attachments) == 0 && len(message.Headers) == 0 {
		input := s.buildSESInput(message)
		return func(ctx context.Context) error {
			_, err := s.client.SendEmail(ctx, input)
			return err
		}, nil
	}

	raw, err := renderMIME(message, s.config)
	if err != nil {
		return nil, err
	}
	destinations := make([]string, 0, message.Recipients())
	destinations = append(destinations, message.To...)
	destinations = append(destinations, message.CC...)
	destinations = append(destinations, message.BCC...)
	input := &ses.SendRawEmailInput{
		Source:       aws.String(fromAddress(message.From, s.config.DefaultFrom)),
		Destinations: destinations,
		RawMessage:   &types.RawMessage{Data: raw},
	}
	return func(ctx context.Context) error {
		_, err := s.client.SendRawEmail(ctx, input)
		return err
	}, nil
}

var permanentSESCodes = map[string]struct{}{
	"MessageRejected":                    {},
	"MailFromDomainNotVerifiedException": {},
	"ConfigurationSetDoesNotExist":       {},
	"AccountSendingPausedException":      {},
	"InvalidParameterValue":              {},
}

func classifySESError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := permanentSESCodes[apiErr.ErrorCode()]; ok {
			return Permanent(err)
		}
	}
	return err
}

func (s *SESClient) buildSESInput(message *Message) *ses.SendEmailInput {
	input := &ses.SendEmailInput{
		Source: aws.String(fromAddress(message.From, s.config.DefaultFrom)),
		Destination: &types.Destination{
			ToAddresses:  message.To,
			CcAddresses:  message.CC,
			BccAddresses: message.BCC,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(message.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if message.Text != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(message.Text), Charset: aws.String("UTF-8")}
	}
	if message.HTML != "" {
		input.Message.Body.Html = &types.Content{Data: aws.String(message.HTML), Charset: aws.String("UTF-8")}
	}
	if message.ReplyTo != "" {
		input.ReplyToAddresses = []string{message.ReplyTo}
	}

	return input
}
