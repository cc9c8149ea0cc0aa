package email

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

// MockClient records messages instead of delivering them. Simulated
// failures go through the same retry loop as the real providers.
type MockClient struct {
	config *Config
	logger Logger

	mu       sync.RWMutex
	failRate float64
	sent     []MockSentEmail
}

type MockSentEmail struct {
	Message *Message  `json:"message"`
	SentAt  time.Time `json:"sent_at"`
	Attempt int       `json:"attempt"`
	Failed  bool      `json:"failed"`
}

var errMockFailure = errors.New("mock email send failure (simulated)")

func NewMockClient(config *Config, logger Logger) *MockClient {
	return &MockClient{
		config:   config,
		logger:   logger,
		failRate: config.MockFailRate,
	}
}

func (m *MockClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, m.config.DefaultFrom); err != nil {
		return err
	}

	attempt := 0
	err := withRetry(ctx, m.config.MaxRetries, m.config.RetryDelay, m.logger, func() error {
		attempt++
		if m.config.MockDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.config.MockDelay):
			}
		}
		return m.record(message, attempt)
	})
	if err != nil {
		return NewError("send", Mock, err)
	}

	m.logger.Debug("Mock email sent",
		"to", message.To,
		"subject", message.Subject,
		"attempts", attempt,
	)
	return nil
}

func (m *MockClient) record(message *Message, attempt int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	failed := m.failRate > 0 && rand.Float64() < m.failRate
	m.sent = append(m.sent, MockSentEmail{Message: message, SentAt: time.Now(), Attempt: attempt, Failed: failed})
	if failed {
		return errMockFailure
	}
	return nil
}

func (m *MockClient) SendBulk(ctx context.Context, messages []*Message) error {
	return sendEach(ctx, m, messages)
}

func (m *MockClient) ValidateEmail(email string) error {
	return ValidateEmail(email)
}

func (m *MockClient) Provider() Provider {
	return Mock
}

func (m *MockClient) Close() error {
	return nil
}

// SentEmails returns a copy of everything Send received.
func (m *MockClient) SentEmails() []MockSentEmail {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]MockSentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockClient) LastSentEmail() *MockSentEmail {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.sent) == 0 {
		return nil
	}
	last := m.sent[len(m.sent)-1]
	return &last
}

func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// SentTo returns the delivered messages addressed to addr in any of To, CC
// or BCC.
func (m *MockClient) SentTo(addr string) []*Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Message
	for _, s := range m.sent {
		if s.Failed {
			continue
		}
		for _, group := range [][]string{s.Message.To, s.Message.CC, s.Message.BCC} {
			if slices.Contains(group, addr) {
				out = append(out, s.Message)
				break
			}
		}
	}
	return out
}

func (m *MockClient) SetFailRate(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRate = rate
}
