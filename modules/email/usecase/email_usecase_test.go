package usecase

import (
	"context"
	"sync"
	"testing"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/email"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLogs struct {
	mu   sync.Mutex
	logs map[string]*domain.EmailLog
}

func (m *memoryLogs) Create(_ context.Context, l *domain.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = uuid.NewString()
	cp := *l
	m.logs[l.ID] = &cp
	return nil
}

func (m *memoryLogs) FindByID(_ context.Context, id string) (*domain.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.logs[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memoryLogs) FindPage(_ context.Context, _ *domain.EmailLogFilter, option *domain.FindPageOption) ([]*domain.EmailLog, *domain.Pagination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.EmailLog, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l)
	}
	return out, domain.NewPagination(option.Page, option.PerPage, int64(len(out))), nil
}

func (m *memoryLogs) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.logs[id]
	l.Status = fields["status"].(domain.EmailStatus)
	l.ErrorMsg = fields["error_msg"].(string)
	l.SentAt = fields["sent_at"].(int64)
	return nil
}

func (m *memoryLogs) GetStats(context.Context) (*domain.EmailStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.EmailStats{}
	for _, l := range m.logs {
		stats.TotalSent++
		switch l.Status {
		case domain.EmailStatusSuccess:
			stats.TotalSuccess++
		case domain.EmailStatusFailed:
			stats.TotalFailed++
		}
	}
	return stats, nil
}

type memoryTemplates struct {
	templates []*domain.EmailTemplate
}

func (m *memoryTemplates) Create(_ context.Context, t *domain.EmailTemplate) error {
	t.ID = uuid.NewString()
	m.templates = append(m.templates, t)
	return nil
}

func (m *memoryTemplates) FindByID(_ context.Context, id string) (*domain.EmailTemplate, error) {
	for _, t := range m.templates {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (m *memoryTemplates) FindByCodeAndLocale(_ context.Context, code domain.EmailCode, locale string) (*domain.EmailTemplate, error) {
	for _, t := range m.templates {
		if t.Code == code && t.Locale == locale {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (m *memoryTemplates) FindPage(_ context.Context, _ *domain.EmailTemplateFilter, option *domain.FindPageOption) ([]*domain.EmailTemplate, *domain.Pagination, error) {
	return m.templates, domain.NewPagination(option.Page, option.PerPage, int64(len(m.templates))), nil
}

func (m *memoryTemplates) Update(_ context.Context, t *domain.EmailTemplate) error {
	for i, existing := range m.templates {
		if existing.ID == t.ID {
			m.templates[i] = t
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

type fixture struct {
	uc        domain.EmailUsecase
	logs      *memoryLogs
	templates *memoryTemplates
	client    *email.MockClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.NewNopLogger()
	f := &fixture{
		logs: &memoryLogs{logs: map[string]*domain.EmailLog{}},
		templates: &memoryTemplates{templates: []*domain.EmailTemplate{{
			SQLModel: domain.SQLModel{ID: "tpl-outbid"},
			Code:     domain.EmailCodeOutbid,
			Name:     "Outbid",
			Subject:  "You were outbid on {{.product_title}}",
			Content:  `<p>Hi {{.user_name}}, bid at least {{.min_next_bid}}.</p>`,
			Locale:   domain.DefaultEmailLocale,
			IsActive: true,
		}}},
		client: email.NewMockClient(&email.Config{DefaultFrom: "noreply@auction.test"}, common.NewLoggerAdapter(logger)),
	}
	f.uc = NewEmailUsecase(&Deps{
		LogRepo:      f.logs,
		TemplateRepo: f.templates,
		Client:       f.client,
		Renderer:     NewTemplateRenderer(logger),
		Paginator:    pagination.MustNewPaginator(pagination.Config{Policy: pagination.PolicyAnchored}),
		Logger:       logger,
	})
	return f
}

func TestEmailUsecase_SendEmailWithTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	emailLog, err := f.uc.SendEmailWithTemplate(ctx, &domain.SendEmailWithTemplateRequest{
		To:           []string{"alice@example.com"},
		TemplateCode: domain.EmailCodeOutbid,
		Locale:       "fr",
		Data: map[string]any{
			"product_title": "Lamp",
			"user_name":     "<Alice>",
			"min_next_bid":  "11.00",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "You were outbid on Lamp", emailLog.Subject)

	sent := f.client.LastSentEmail()
	require.NotNil(t, sent)
	assert.Equal(t, "<p>Hi &lt;Alice&gt;, bid at least 11.00.</p>", sent.Message.HTML)

	stored, err := f.uc.GetEmailLog(ctx, emailLog.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EmailStatusSuccess, stored.Status)
	assert.Equal(t, "outbid", stored.Template)
	assert.Equal(t, domain.EmailProviderMock, stored.Provider)
	assert.Positive(t, stored.SentAt)
}

func TestEmailUsecase_SendFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.client.SetFailRate(1)

	emailLog, err := f.uc.SendEmail(context.Background(), &domain.SendEmailRequest{
		To:          []string{"bob@example.com"},
		Subject:     "Hello",
		Content:     "Plain body",
		ContentType: "text/plain",
	})
	require.ErrorIs(t, err, domain.ErrEmailSendFailed)
	require.NotNil(t, emailLog)

	stored, err := f.uc.GetEmailLog(context.Background(), emailLog.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EmailStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMsg)

	stats, err := f.uc.GetEmailStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalFailed)
}

func TestEmailUsecase_TemplateLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateTemplate(ctx, &domain.CreateEmailTemplateRequest{
		Code: domain.EmailCodeOutbid, Name: "Dup", Subject: "x", Content: "y",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTemplateExists)

	_, err = f.uc.CreateTemplate(ctx, &domain.CreateEmailTemplateRequest{
		Code: domain.EmailCodeAuctionWon, Name: "Won", Subject: "{{.product_title", Content: "y",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTemplateInvalid)

	inactive := false
	won, err := f.uc.CreateTemplate(ctx, &domain.CreateEmailTemplateRequest{
		Code:     domain.EmailCodeAuctionWon,
		Name:     " Won ",
		Subject:  "You won {{.product_title}}",
		Content:  "<p>Pay {{.amount}}</p>",
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Won", won.Name)
	assert.Equal(t, domain.DefaultEmailLocale, won.Locale)

	_, err = f.uc.PreviewTemplate(ctx, &domain.EmailPreviewRequest{TemplateCode: domain.EmailCodeAuctionWon})
	assert.ErrorIs(t, err, domain.ErrEmailTemplateNotFound)

	active := true
	_, err = f.uc.UpdateTemplate(ctx, won.ID, &domain.UpdateEmailTemplateRequest{IsActive: &active})
	require.NoError(t, err)

	preview, err := f.uc.PreviewTemplate(ctx, &domain.EmailPreviewRequest{
		TemplateCode: domain.EmailCodeAuctionWon,
		Data:         map[string]any{"product_title": "Lamp", "amount": "12.00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "You won Lamp", preview.Subject)
	assert.Equal(t, "<p>Pay 12.00</p>", preview.Content)
	assert.Equal(t, []string{"amount", "product_title"}, preview.RequiredFields)
	assert.Empty(t, f.client.SentEmails(), "preview never sends")

	_, err = f.uc.GetTemplate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEmailTemplateNotFound)

	list, err := f.uc.ListTemplates(ctx, &domain.EmailTemplateListQuery{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}
