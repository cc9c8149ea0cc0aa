package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridClient struct {
	client *sendgrid.Client
	config *Config
	logger Logger
}

func NewSendGridClient(config *Config, logger Logger) (*SendGridClient, error) {
	if config.SendGridAPIKey == "" {
		return nil, NewError("create_sendgrid_client", SendGrid, ErrProviderNotConfigured)
	}

	return &SendGridClient{
		client: sendgrid.NewSendClient(config.SendGridAPIKey),
		config: config,
		logger: logger,
	}, nil
}

func (sg *SendGridClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, sg.config.DefaultFrom); err != nil {
		return err
	}

	sgMessage := sg.buildSendGridMessage(message)
	err := withRetry(ctx, sg.config.MaxRetries, sg.config.RetryDelay, sg.logger, func() error {
		response, err := sg.client.SendWithContext(ctx, sgMessage)
		if err != nil {
			return err
		}
		return sendGridStatusError(response.StatusCode, response.Body)
	})
	if err != nil {
		return NewError("send", SendGrid, err)
	}

	sg.logger.Debug("Email sent via SendGrid",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}

func (sg *SendGridClient) SendBulk(ctx context.Context, messages []*Message) error {
	return sendEach(ctx, sg, messages)
}

func (sg *SendGridClient) ValidateEmail(email string) error {
	return ValidateEmail(email)
}

func (sg *SendGridClient) Provider() Provider {
	return SendGrid
}

func (sg *SendGridClient) Close() error {
	return nil
}

func (sg *SendGridClient) buildSendGridMessage(message *Message) *mail.SGMailV3 {
	fromName := message.FromName
	if fromName == "" {
		fromName = sg.config.DefaultFromName
	}

	sgMessage := mail.NewV3Mail()
	sgMessage.SetFrom(mail.NewEmail(fromName, fromAddress(message.From, sg.config.DefaultFrom)))
	sgMessage.Subject = message.Subject

	personalization := mail.NewPersonalization()
	for _, to := range message.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	for _, cc := range message.CC {
		personalization.AddCCs(mail.NewEmail("", cc))
	}
	for _, bcc := range message.BCC {
		personalization.AddBCCs(mail.NewEmail("", bcc))
	}
	for k, v := range message.Headers {
		personalization.SetHeader(k, v)
	}
	sgMessage.AddPersonalizations(personalization)

	// text/plain must come before text/html
	if message.Text != "" {
		sgMessage.AddContent(mail.NewContent("text/plain", message.Text))
	}
	if message.HTML != "" {
		sgMessage.AddContent(mail.NewContent("text/html", message.HTML))
	}

	for _, attachment := range message.Attachments {
		sgAttachment := mail.NewAttachment()
		sgAttachment.SetFilename(attachment.Filename)
		sgAttachment.SetContent(base64.StdEncoding.EncodeToString(attachment.Content))
		sgAttachment.SetType(attachment.ContentType)
		sgMessage.AddAttachment(sgAttachment)
	}

	if message.ReplyTo != "" {
		sgMessage.SetReplyTo(mail.NewEmail("", message.ReplyTo))
	}

	return sgMessage
}

// sendGridStatusError retries throttling and server errors only. Any other
// non 2xx reply means the request itself was refused.
func sendGridStatusError(status int, body string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	err := fmt.Errorf("sendgrid returned status %d: %s", status, body)
	if status == http.StatusTooManyRequests || status >= 500 {
		return err
	}
	return Permanent(err)
}
