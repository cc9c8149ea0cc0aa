package domain

import (
	"context"
	"net/http"
)

/*****************************
*        Email errors        *
*****************************/
var (
	ErrEmailSendFailed = &DetailedError{
		IDField:         "EMAIL_SEND_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to send email",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrEmailTemplateNotFound = &DetailedError{
		IDField:         "EMAIL_TEMPLATE_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Email template not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrEmailTemplateInvalid = &DetailedError{
		IDField:         "EMAIL_TEMPLATE_INVALID",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Email template could not be parsed",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrEmailTemplateExists = &DetailedError{
		IDField:         "EMAIL_TEMPLATE_EXISTS",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "A template with this code and locale already exists",
		StatusCodeField: http.StatusConflict,
	}
	ErrEmailLogNotFound = &DetailedError{
		IDField:         "EMAIL_LOG_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Email log not found",
		StatusCodeField: http.StatusNotFound,
	}
)

/***************************************
*       Email entities and types       *
***************************************/
type EmailCode string

const (
	EmailCodeVerification EmailCode = "email_verification"
	EmailCodeWelcome      EmailCode = "welcome"
	EmailCodeOutbid       EmailCode = "outbid"
	EmailCodeAuctionWon   EmailCode = "auction_won"
	EmailCodeAuctionEnded EmailCode = "auction_ended"
)

const DefaultEmailLocale = "en"

type EmailStatus string

const (
	EmailStatusSuccess EmailStatus = "success"
	EmailStatusFailed  EmailStatus = "failed"
	EmailStatusPending EmailStatus = "pending"
)

type EmailProvider string

const (
	EmailProviderSMTP     EmailProvider = "smtp"
	EmailProviderSendGrid EmailProvider = "sendgrid"
	EmailProviderSES      EmailProvider = "ses"
	EmailProviderMock     EmailProvider = "mock"
)

type EmailLog struct {
	SQLModel
	To  StringSlice `json:"to" gorm:"type:jsonb;not null"`
	CC  StringSlice `json:"cc" gorm:"type:jsonb"`
	BCC StringSlice `json:"bcc" gorm:"type:jsonb"`

	Subject     string `json:"subject" gorm:"type:varchar(255)"`
	Content     string `json:"content" gorm:"type:text"`
	ContentType string `json:"content_type" gorm:"type:varchar(32)"`

	Template string `json:"template" gorm:"type:varchar(64);index"`
	Data     JSONB  `json:"data" gorm:"type:jsonb"`

	Status    EmailStatus   `json:"status" gorm:"type:varchar(32);index"`
	ErrorMsg  string        `json:"error_msg" gorm:"type:text"`
	SentAt    int64         `json:"sent_at"`
	RequestID string        `json:"request_id" gorm:"type:varchar(64)"`
	Provider  EmailProvider `json:"provider" gorm:"type:varchar(64)"`

	TotalRecipients int   `json:"total_recipients" gorm:"default:0"`
	MessageSize     int64 `json:"message_size" gorm:"default:0"`
}

func (e *EmailLog) AllRecipients() []string {
	all := make([]string, 0, len(e.To)+len(e.CC)+len(e.BCC))
	all = append(all, e.To...)
	all = append(all, e.CC...)
	all = append(all, e.BCC...)
	return all
}

type EmailLogFilter struct {
	ID             *string        `json:"id,omitempty"`
	AnyRecipient   *string        `json:"any_recipient,omitempty"`
	Status         *EmailStatus   `json:"status,omitempty"`
	Provider       *EmailProvider `json:"provider,omitempty"`
	Template       *string        `json:"template,omitempty"`
	SentAfter      *int64         `json:"sent_after,omitempty"`
	SentBefore     *int64         `json:"sent_before,omitempty"`
	SearchTerm     *string        `json:"search_term,omitempty"`
	IncludeDeleted *bool          `json:"include_deleted,omitempty"`
}

type EmailTemplate struct {
	SQLModel
	Code        EmailCode `json:"code" gorm:"type:varchar(32);not null;uniqueIndex:idx_email_template_code_locale,priority:1"`
	Name        string    `json:"name" gorm:"type:varchar(64);not null"`
	Subject     string    `json:"subject" gorm:"type:varchar(255);not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	Description string    `json:"description" gorm:"type:text"`
	Locale      string    `json:"locale" gorm:"type:varchar(16);uniqueIndex:idx_email_template_code_locale,priority:2"`
}

type EmailTemplateFilter struct {
	ID             *string    `json:"id,omitempty"`
	Code           *EmailCode `json:"code,omitempty"`
	Locale         *string    `json:"locale,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
	SearchTerm     *string    `json:"search_term,omitempty"`
	IncludeDeleted *bool      `json:"include_deleted,omitempty"`
}

/*************************************
*  Email usecase interfaces and types *
**************************************/
type EmailUsecase interface {
	SendEmail(ctx context.Context, req *SendEmailRequest) (*EmailLog, error)
	SendEmailWithTemplate(ctx context.Context, req *SendEmailWithTemplateRequest) (*EmailLog, error)

	CreateTemplate(ctx context.Context, req *CreateEmailTemplateRequest) (*EmailTemplate, error)
	UpdateTemplate(ctx context.Context, templateID string, req *UpdateEmailTemplateRequest) (*EmailTemplate, error)
	GetTemplate(ctx context.Context, templateID string) (*EmailTemplate, error)
	ListTemplates(ctx context.Context, query *EmailTemplateListQuery) (*PageResult[*EmailTemplate], error)
	PreviewTemplate(ctx context.Context, req *EmailPreviewRequest) (*EmailPreviewResponse, error)

	GetEmailLog(ctx context.Context, emailLogID string) (*EmailLog, error)
	ListEmailLogs(ctx context.Context, query *EmailLogListQuery) (*PageResult[*EmailLog], error)
	GetEmailStats(ctx context.Context) (*EmailStats, error)
}

type SendEmailRequest struct {
	To          []string          `json:"to" binding:"required,min=1,dive,email"`
	CC          []string          `json:"cc,omitempty" binding:"omitempty,dive,email"`
	BCC         []string          `json:"bcc,omitempty" binding:"omitempty,dive,email"`
	Subject     string            `json:"subject" binding:"required,max=255"`
	Content     string            `json:"content" binding:"required"`
	ContentType string            `json:"content_type" binding:"required,oneof=text/plain text/html"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestID   string            `json:"-"`
}

type SendEmailWithTemplateRequest struct {
	To           []string          `json:"to" binding:"required,min=1,dive,email"`
	CC           []string          `json:"cc,omitempty" binding:"omitempty,dive,email"`
	BCC          []string          `json:"bcc,omitempty" binding:"omitempty,dive,email"`
	TemplateCode EmailCode         `json:"template_code" binding:"required"`
	Locale       string            `json:"locale,omitempty"`
	Data         map[string]any    `json:"data,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	RequestID    string            `json:"-"`
}

type CreateEmailTemplateRequest struct {
	Code        EmailCode `json:"code" binding:"required,max=32"`
	Name        string    `json:"name" binding:"required,min=1,max=64"`
	Subject     string    `json:"subject" binding:"required,min=1,max=255"`
	Content     string    `json:"content" binding:"required"`
	Description string    `json:"description,omitempty"`
	Locale      string    `json:"locale,omitempty" binding:"omitempty,max=16"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

type UpdateEmailTemplateRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=64"`
	Subject     *string `json:"subject,omitempty" binding:"omitempty,min=1,max=255"`
	Content     *string `json:"content,omitempty" binding:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type EmailTemplateListQuery struct {
	PageQuery
	Search   string `form:"q" binding:"omitempty,max=100"`
	Code     string `form:"code" binding:"omitempty,max=32"`
	IsActive *bool  `form:"is_active"`
}

type EmailLogListQuery struct {
	PageQuery
	Search    string `form:"q" binding:"omitempty,max=100"`
	Status    string `form:"status" binding:"omitempty,oneof=success failed pending"`
	Template  string `form:"template" binding:"omitempty,max=64"`
	Recipient string `form:"recipient" binding:"omitempty,email"`
}

type EmailStats struct {
	TotalSent    int64   `json:"total_sent"`
	TotalSuccess int64   `json:"total_success"`
	TotalFailed  int64   `json:"total_failed"`
	TotalPending int64   `json:"total_pending"`
	SuccessRate  float64 `json:"success_rate"`
}

type EmailPreviewRequest struct {
	TemplateCode EmailCode      `json:"template_code" binding:"required"`
	Locale       string         `json:"locale,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

type EmailPreviewResponse struct {
	Subject        string         `json:"subject"`
	Content        string         `json:"content"`
	RequiredFields []string       `json:"required_fields"`
	Data           map[string]any `json:"data"`
}
