package usecase

import (
	"context"
	"errors"
	"strings"

	"auction-market/domain"
	"auction-market/pkg/email"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
	"auction-market/pkg/utils"
)

type EmailLogRepository interface {
	Create(ctx context.Context, emailLog *domain.EmailLog) error
	FindByID(ctx context.Context, emailLogID string) (*domain.EmailLog, error)
	FindPage(ctx context.Context, filter *domain.EmailLogFilter, option *domain.FindPageOption) ([]*domain.EmailLog, *domain.Pagination, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	GetStats(ctx context.Context) (*domain.EmailStats, error)
}

type EmailTemplateRepository interface {
	Create(ctx context.Context, template *domain.EmailTemplate) error
	FindByID(ctx context.Context, templateID string) (*domain.EmailTemplate, error)
	FindByCodeAndLocale(ctx context.Context, code domain.EmailCode, locale string) (*domain.EmailTemplate, error)
	FindPage(ctx context.Context, filter *domain.EmailTemplateFilter, option *domain.FindPageOption) ([]*domain.EmailTemplate, *domain.Pagination, error)
	Update(ctx context.Context, template *domain.EmailTemplate) error
}

type Deps struct {
	LogRepo      EmailLogRepository
	TemplateRepo EmailTemplateRepository
	Client       email.Client
	Renderer     *TemplateRenderer
	Paginator    *pagination.Paginator
	Logger       log.Logger
}

type emailUsecase struct {
	logRepo      EmailLogRepository
	templateRepo EmailTemplateRepository
	client       email.Client
	renderer     *TemplateRenderer
	paginator    *pagination.Paginator
	logger       log.Logger
}

func NewEmailUsecase(deps *Deps) domain.EmailUsecase {
	return &emailUsecase{
		logRepo:      deps.LogRepo,
		templateRepo: deps.TemplateRepo,
		client:       deps.Client,
		renderer:     deps.Renderer,
		paginator:    deps.Paginator,
		logger:       deps.Logger,
	}
}

// SendEmail records a pending log entry before handing the message to the
// provider, then settles it as success or failed. A failed send still
// returns the log so callers can inspect the error message.
func (u *emailUsecase) SendEmail(ctx context.Context, req *domain.SendEmailRequest) (*domain.EmailLog, error) {
	return u.deliver(ctx, req, "", nil)
}

func (u *emailUsecase) SendEmailWithTemplate(ctx context.Context, req *domain.SendEmailWithTemplateRequest) (*domain.EmailLog, error) {
	tmpl, err := u.resolveTemplate(ctx, req.TemplateCode, req.Locale)
	if err != nil {
		return nil, err
	}

	subject, content, err := u.renderer.Render(tmpl, req.Data)
	if err != nil {
		return nil, domain.ErrEmailTemplateInvalid.WithWrap(err)
	}

	return u.deliver(ctx, &domain.SendEmailRequest{
		To:          req.To,
		CC:          req.CC,
		BCC:         req.BCC,
		Subject:     subject,
		Content:     content,
		ContentType: "text/html",
		Headers:     req.Headers,
		RequestID:   req.RequestID,
	}, string(req.TemplateCode), req.Data)
}

func (u *emailUsecase) deliver(ctx context.Context, req *domain.SendEmailRequest, templateCode string, data map[string]any) (*domain.EmailLog, error) {
	message := &email.Message{
		To:      req.To,
		CC:      req.CC,
		BCC:     req.BCC,
		Subject: req.Subject,
		Headers: req.Headers,
	}
	if req.ContentType == "text/html" {
		message.HTML = req.Content
	} else {
		message.Text = req.Content
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = log.RequestIDFromContext(ctx)
	}

	emailLog := &domain.EmailLog{
		To:              domain.NewStringSlice(req.To),
		CC:              domain.NewStringSlice(req.CC),
		BCC:             domain.NewStringSlice(req.BCC),
		Subject:         req.Subject,
		Content:         req.Content,
		ContentType:     req.ContentType,
		Template:        templateCode,
		Data:            domain.JSONB(data),
		Status:          domain.EmailStatusPending,
		RequestID:       requestID,
		Provider:        domain.EmailProvider(u.client.Provider()),
		TotalRecipients: message.Recipients(),
		MessageSize:     message.Size(),
	}
	if err := u.logRepo.Create(ctx, emailLog); err != nil {
		return nil, domain.ErrEmailSendFailed.WithWrap(err)
	}

	if sendErr := u.client.Send(ctx, message); sendErr != nil {
		emailLog.Status = domain.EmailStatusFailed
		emailLog.ErrorMsg = sendErr.Error()
		u.settle(ctx, emailLog)

		u.logger.ErrorContext(ctx, "Failed to send email",
			log.String("email_log_id", emailLog.ID),
			log.String("template", templateCode),
			log.Error(sendErr),
		)
		return emailLog, domain.ErrEmailSendFailed.WithWrap(sendErr)
	}

	emailLog.Status = domain.EmailStatusSuccess
	emailLog.SentAt = utils.NowUnixMillis()
	u.settle(ctx, emailLog)

	u.logger.InfoContext(ctx, "Email sent",
		log.String("email_log_id", emailLog.ID),
		log.String("template", templateCode),
		log.Int("recipients", emailLog.TotalRecipients),
	)
	return emailLog, nil
}

func (u *emailUsecase) settle(ctx context.Context, emailLog *domain.EmailLog) {
	err := u.logRepo.UpdateFields(context.WithoutCancel(ctx), emailLog.ID, map[string]any{
		"status":    emailLog.Status,
		"error_msg": emailLog.ErrorMsg,
		"sent_at":   emailLog.SentAt,
	})
	if err != nil {
		u.logger.ErrorContext(ctx, "Failed to update email log", log.String("email_log_id", emailLog.ID), log.Error(err))
	}
}

// resolveTemplate falls back to the default locale when the requested one
// has no template.
func (u *emailUsecase) resolveTemplate(ctx context.Context, code domain.EmailCode, locale string) (*domain.EmailTemplate, error) {
	if locale == "" {
		locale = domain.DefaultEmailLocale
	}

	tmpl, err := u.templateRepo.FindByCodeAndLocale(ctx, code, locale)
	if errors.Is(err, domain.ErrRecordNotFound) && locale != domain.DefaultEmailLocale {
		tmpl, err = u.templateRepo.FindByCodeAndLocale(ctx, code, domain.DefaultEmailLocale)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrEmailTemplateNotFound.WithReasonf("no template for code %q", code)
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	if !tmpl.IsActive {
		return nil, domain.ErrEmailTemplateNotFound.WithReasonf("template %q is inactive", code)
	}
	return tmpl, nil
}

func (u *emailUsecase) CreateTemplate(ctx context.Context, req *domain.CreateEmailTemplateRequest) (*domain.EmailTemplate, error) {
	locale := req.Locale
	if locale == "" {
		locale = domain.DefaultEmailLocale
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	_, err := u.templateRepo.FindByCodeAndLocale(ctx, req.Code, locale)
	switch {
	case err == nil:
		return nil, domain.ErrEmailTemplateExists
	case !errors.Is(err, domain.ErrRecordNotFound):
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	tmpl := &domain.EmailTemplate{
		Code:        req.Code,
		Name:        strings.TrimSpace(req.Name),
		Subject:     req.Subject,
		Content:     req.Content,
		Description: req.Description,
		Locale:      locale,
		IsActive:    isActive,
	}
	if err := u.renderer.Validate(tmpl); err != nil {
		return nil, domain.ErrEmailTemplateInvalid.WithReason(err.Error())
	}
	if err := u.templateRepo.Create(ctx, tmpl); err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	u.logger.InfoContext(ctx, "Email template created",
		log.String("template_id", tmpl.ID),
		log.String("code", string(tmpl.Code)),
		log.String("locale", locale),
	)
	return tmpl, nil
}

func (u *emailUsecase) UpdateTemplate(ctx context.Context, templateID string, req *domain.UpdateEmailTemplateRequest) (*domain.EmailTemplate, error) {
	tmpl, err := u.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tmpl.Name = strings.TrimSpace(*req.Name)
	}
	if req.Subject != nil {
		tmpl.Subject = *req.Subject
	}
	if req.Content != nil {
		tmpl.Content = *req.Content
	}
	if req.Description != nil {
		tmpl.Description = *req.Description
	}
	if req.IsActive != nil {
		tmpl.IsActive = *req.IsActive
	}

	if err := u.renderer.Validate(tmpl); err != nil {
		return nil, domain.ErrEmailTemplateInvalid.WithReason(err.Error())
	}
	if err := u.templateRepo.Update(ctx, tmpl); err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	u.logger.InfoContext(ctx, "Email template updated", log.String("template_id", templateID))
	return tmpl, nil
}

func (u *emailUsecase) GetTemplate(ctx context.Context, templateID string) (*domain.EmailTemplate, error) {
	tmpl, err := u.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrEmailTemplateNotFound
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return tmpl, nil
}

func (u *emailUsecase) ListTemplates(ctx context.Context, query *domain.EmailTemplateListQuery) (*domain.PageResult[*domain.EmailTemplate], error) {
	page, perPage := u.paginator.Normalize(query.Page, query.PerPage)

	filter := &domain.EmailTemplateFilter{IsActive: query.IsActive}
	if query.Search != "" {
		filter.SearchTerm = &query.Search
	}
	if query.Code != "" {
		code := domain.EmailCode(query.Code)
		filter.Code = &code
	}

	templates, pager, err := u.templateRepo.FindPage(ctx, filter, &domain.FindPageOption{
		Sort:    []string{"code", "locale"},
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return domain.NewPageResult(templates, pager, u.paginator), nil
}

// PreviewTemplate renders a stored template without sending or logging it.
func (u *emailUsecase) PreviewTemplate(ctx context.Context, req *domain.EmailPreviewRequest) (*domain.EmailPreviewResponse, error) {
	tmpl, err := u.resolveTemplate(ctx, req.TemplateCode, req.Locale)
	if err != nil {
		return nil, err
	}

	subject, content, err := u.renderer.Render(tmpl, req.Data)
	if err != nil {
		return nil, domain.ErrEmailTemplateInvalid.WithReason(err.Error())
	}
	return &domain.EmailPreviewResponse{
		Subject:        subject,
		Content:        content,
		RequiredFields: u.renderer.RequiredFields(tmpl),
		Data:           req.Data,
	}, nil
}

func (u *emailUsecase) GetEmailLog(ctx context.Context, emailLogID string) (*domain.EmailLog, error) {
	emailLog, err := u.logRepo.FindByID(ctx, emailLogID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrEmailLogNotFound
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return emailLog, nil
}

func (u *emailUsecase) ListEmailLogs(ctx context.Context, query *domain.EmailLogListQuery) (*domain.PageResult[*domain.EmailLog], error) {
	page, perPage := u.paginator.Normalize(query.Page, query.PerPage)

	filter := &domain.EmailLogFilter{}
	if query.Search != "" {
		filter.SearchTerm = &query.Search
	}
	if query.Status != "" {
		status := domain.EmailStatus(query.Status)
		filter.Status = &status
	}
	if query.Template != "" {
		filter.Template = &query.Template
	}
	if query.Recipient != "" {
		filter.AnyRecipient = &query.Recipient
	}

	logs, pager, err := u.logRepo.FindPage(ctx, filter, &domain.FindPageOption{
		Sort:    []string{"created_at DESC", "id"},
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return domain.NewPageResult(logs, pager, u.paginator), nil
}

func (u *emailUsecase) GetEmailStats(ctx context.Context) (*domain.EmailStats, error) {
	stats, err := u.logRepo.GetStats(ctx)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return stats, nil
}
