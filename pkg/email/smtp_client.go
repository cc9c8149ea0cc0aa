package email

import (
	"context"
	"errors"
	"net/textproto"
	"time"

	"github.com/go-mail/mail/v2"
)

type SMTPClient struct {
	dialer *mail.Dialer
	config *Config
	logger Logger
}

func NewSMTPClient(config *Config, logger Logger) (*SMTPClient, error) {
	if config.SMTPHost == "" {
		return nil, NewError("create_smtp_client", SMTP, ErrProviderNotConfigured)
	}

	dialer := mail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUsername, config.SMTPPassword)
	dialer.Timeout = 10 * time.Second

	return &SMTPClient{
		dialer: dialer,
		config: config,
		logger: logger,
	}, nil
}

func (s *SMTPClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, s.config.DefaultFrom); err != nil {
		return err
	}

	m := composeMIME(message, s.config)
	err := withRetry(ctx, s.config.MaxRetries, s.config.RetryDelay, s.logger, func() error {
		return classifySMTPError(s.dialer.DialAndSend(m))
	})
	if err != nil {
		return NewError("send", SMTP, err)
	}

	s.logger.Debug("Email sent via SMTP",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}

func (s *SMTPClient) SendBulk(ctx context.Context, messages []*Message) error {
	return sendEach(ctx, s, messages)
}

func (s *SMTPClient) ValidateEmail(email string) error {
	return ValidateEmail(email)
}

func (s *SMTPClient) Provider() Provider {
	return SMTP
}

func (s *SMTPClient) Close() error {
	return nil
}

// classifySMTPError marks 5xx replies, e.g. unknown mailbox or failed auth,
// as permanent.
func classifySMTPError(err error) error {
	if err == nil {
		return nil
	}
	cause := err
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		cause = sendErr.Cause
	}
	var reply *textproto.Error
	if errors.As(cause, &reply) && reply.Code >= 500 {
		return Permanent(err)
	}
	return err
}
