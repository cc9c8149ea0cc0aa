package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-market/pkg/utils"
)

type Provider string

const (
	SMTP     Provider = "smtp"
	SES      Provider = "ses"
	SendGrid Provider = "sendgrid"
	Mock     Provider = "mock"
)

var (
	ErrInvalidProvider       = errors.New("invalid email provider")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrMissingRecipients     = errors.New("no recipients specified")
	ErrMissingSubject        = errors.New("subject is required")
	ErrMissingContent        = errors.New("email content is required")
	ErrProviderNotConfigured = errors.New("email provider not properly configured")
)

type Error struct {
	Operation string
	Provider  Provider
	Err       error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("email %s operation failed for provider '%s': %v", e.Operation, e.Provider, e.Err)
	}
	return fmt.Sprintf("email %s operation failed: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(operation string, provider Provider, err error) *Error {
	return &Error{
		Operation: operation,
		Provider:  provider,
		Err:       err,
	}
}

type Logger interface {
	Info(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	Debug(msg string, keyvals ...any)
}

// Client delivers already rendered messages. Template rendering happens
// before a message reaches the client.
type Client interface {
	Send(ctx context.Context, message *Message) error
	SendBulk(ctx context.Context, messages []*Message) error
	ValidateEmail(email string) error
	Provider() Provider
	Close() error
}

type Message struct {
	From        string            `json:"from"`
	FromName    string            `json:"from_name,omitempty"`
	To          []string          `json:"to"`
	CC          []string          `json:"cc,omitempty"`
	BCC         []string          `json:"bcc,omitempty"`
	ReplyTo     string            `json:"reply_to,omitempty"`
	Subject     string            `json:"subject"`
	Text        string            `json:"text,omitempty"`
	HTML        string            `json:"html,omitempty"`
	Attachments []*Attachment     `json:"attachments,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Size approximates the message size in bytes, attachments included.
func (m *Message) Size() int64 {
	size := int64(len(m.Subject) + len(m.Text) + len(m.HTML))
	for _, a := range m.Attachments {
		size += int64(len(a.Content))
	}
	return size
}

func (m *Message) Recipients() int {
	return len(m.To) + len(m.CC) + len(m.BCC)
}

type Attachment struct {
	Filename    string `json:"filename"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`
}

type Config struct {
	DefaultFrom     string
	DefaultFromName string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// AWS SES
	SESRegion    string
	SESAccessKey string
	SESSecretKey string

	SendGridAPIKey string

	MaxRetries int
	RetryDelay time.Duration

	// Mock only
	MockDelay    time.Duration
	MockFailRate float64
}

type Factory struct {
	logger Logger
}

func NewEmailFactory(logger Logger) *Factory {
	return &Factory{
		logger: logger,
	}
}

// CreateClient creates an email client for the given provider
func (f *Factory) CreateClient(provider Provider, config *Config) (Client, error) {
	setDefaults(config)

	var (
		client Client
		err    error
	)
	switch provider {
	case SMTP:
		client, err = NewSMTPClient(config, f.logger)
	case SES:
		client, err = NewSESClient(config, f.logger)
	case SendGrid:
		client, err = NewSendGridClient(config, f.logger)
	case Mock:
		client = NewMockClient(config, f.logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	f.logger.Info("Email client created",
		"provider", string(provider),
		"default_from", config.DefaultFrom,
		"max_retries", config.MaxRetries,
	)
	return client, nil
}

func setDefaults(config *Config) {
	if config.SESRegion == "" {
		config.SESRegion = "us-east-1"
	}
	if config.SMTPPort == 0 {
		config.SMTPPort = 587
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
}

func ValidateEmail(email string) error {
	if !utils.IsEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}

func validateMessage(message *Message, defaultFrom string) error {
	if len(message.To) == 0 {
		return ErrMissingRecipients
	}
	if message.Subject == "" {
		return ErrMissingSubject
	}
	if message.Text == "" && message.HTML == "" {
		return ErrMissingContent
	}

	if err := ValidateEmail(fromAddress(message.From, defaultFrom)); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	for _, group := range [][]string{message.To, message.CC, message.BCC} {
		for _, addr := range group {
			if err := ValidateEmail(addr); err != nil {
				return fmt.Errorf("invalid recipient address %s: %w", addr, err)
			}
		}
	}
	return nil
}

func fromAddress(from, defaultFrom string) string {
	if from == "" {
		return defaultFrom
	}
	return from
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a provider error that a retry cannot fix, such as a
// rejected recipient or a bad API key.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// withRetry runs send up to maxRetries+1 times, waiting attempt*delay
// between attempts. Permanent errors end the loop at once.
func withRetry(ctx context.Context, maxRetries int, delay time.Duration, logger Logger, send func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay * time.Duration(attempt)):
			}
		}

		if lastErr = send(); lastErr == nil {
			return nil
		}
		logger.Debug("Email send attempt failed",
			"attempt", attempt+1,
			"error", lastErr.Error(),
		)
		if IsPermanent(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func sendEach(ctx context.Context, client Client, messages []*Message) error {
	for _, message := range messages {
		if err := client.Send(ctx, message); err != nil {
			return err
		}
	}
	return nil
}
