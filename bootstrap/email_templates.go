package bootstrap

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"

	"auction-market/domain"
	"auction-market/pkg/log"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

const supportEmailPlaceholder = "[[support_email]]"

type EmailTemplateRepository interface {
	FindByCodeAndLocale(ctx context.Context, code domain.EmailCode, locale string) (*domain.EmailTemplate, error)
	Create(ctx context.Context, template *domain.EmailTemplate) error
}

type EmailTemplateConfig struct {
	SupportEmail string
}

type DefaultEmailTemplate struct {
	Code        domain.EmailCode
	Name        string
	Subject     string
	ContentFile string
	Description string
}

func DefaultEmailTemplates() []DefaultEmailTemplate {
	return []DefaultEmailTemplate{
		{
			Code:        domain.EmailCodeVerification,
			Name:        "Email verification",
			Subject:     "Verify your email address - {{.app_name}}",
			ContentFile: "verification.html",
			Description: "Sent on registration and on request to confirm the address",
		},
		{
			Code:        domain.EmailCodeWelcome,
			Name:        "Welcome",
			Subject:     "Welcome to {{.app_name}}",
			ContentFile: "welcome.html",
			Description: "Sent once the address is verified",
		},
		{
			Code:        domain.EmailCodeOutbid,
			Name:        "Outbid",
			Subject:     "You were outbid on {{.product_title}}",
			ContentFile: "outbid.html",
			Description: "Sent to the previous leader when a higher bid arrives",
		},
		{
			Code:        domain.EmailCodeAuctionWon,
			Name:        "Auction won",
			Subject:     "You won {{.product_title}}",
			ContentFile: "auction_won.html",
			Description: "Sent to the winning bidder when an auction closes",
		},
		{
			Code:        domain.EmailCodeAuctionEnded,
			Name:        "Auction ended",
			Subject:     "Your auction for {{.product_title}} has ended",
			ContentFile: "auction_ended.html",
			Description: "Sent to the seller when an auction closes",
		},
	}
}

type EmailTemplateSeeder struct {
	templateRepo EmailTemplateRepository
	config       EmailTemplateConfig
	logger       log.Logger
}

func NewEmailTemplateSeeder(templateRepo EmailTemplateRepository, config EmailTemplateConfig, logger log.Logger) *EmailTemplateSeeder {
	return &EmailTemplateSeeder{
		templateRepo: templateRepo,
		config:       config,
		logger:       logger,
	}
}

// Seed creates the default templates that are missing. Existing rows are
// never overwritten so admin edits survive restarts.
func (s *EmailTemplateSeeder) Seed(ctx context.Context) error {
	var errs []error
	created := 0
	for _, def := range DefaultEmailTemplates() {
		_, err := s.templateRepo.FindByCodeAndLocale(ctx, def.Code, domain.DefaultEmailLocale)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			errs = append(errs, fmt.Errorf("lookup %s: %w", def.Code, err))
			continue
		}

		content, err := s.loadContent(def.ContentFile)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		err = s.templateRepo.Create(ctx, &domain.EmailTemplate{
			Code:        def.Code,
			Name:        def.Name,
			Subject:     def.Subject,
			Content:     content,
			Description: def.Description,
			Locale:      domain.DefaultEmailLocale,
			IsActive:    true,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", def.Code, err))
			continue
		}
		created++
		s.logger.Info("Seeded email template", log.String("code", string(def.Code)))
	}

	s.logger.Info("Email templates ready", log.Int("created", created))
	return errors.Join(errs...)
}

func (s *EmailTemplateSeeder) loadContent(filename string) (string, error) {
	content, err := emailTemplates.ReadFile(path.Join("templates", "email", filename))
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", filename, err)
	}
	return strings.ReplaceAll(string(content), supportEmailPlaceholder, s.config.SupportEmail), nil
}
