package usecase

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strings"
	textTemplate "text/template"
	"time"

	"auction-market/domain"
	"auction-market/pkg/log"
)

var templateFieldPattern = regexp.MustCompile(`\{\{-?\s*\.(\w+)`)

var templateFuncs = map[string]any{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"now":   func() string { return time.Now().UTC().Format("2006-01-02 15:04 MST") },
}

// TemplateRenderer renders subjects as plain text and bodies as escaped HTML.
type TemplateRenderer struct {
	logger log.Logger
}

func NewTemplateRenderer(logger log.Logger) *TemplateRenderer {
	return &TemplateRenderer{
		logger: logger,
	}
}

func (r *TemplateRenderer) Render(tmpl *domain.EmailTemplate, data map[string]any) (subject, content string, err error) {
	subjectTmpl, contentTmpl, err := r.parse(tmpl)
	if err != nil {
		return "", "", err
	}
	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	if err := subjectTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := contentTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render content: %w", err)
	}
	content = buf.String()

	r.logger.Debug("Template rendered",
		log.String("code", string(tmpl.Code)),
		log.Int("content_length", len(content)),
	)
	return subject, content, nil
}

func (r *TemplateRenderer) Validate(tmpl *domain.EmailTemplate) error {
	_, _, err := r.parse(tmpl)
	return err
}

// RequiredFields lists the top-level data keys referenced by the template.
func (r *TemplateRenderer) RequiredFields(tmpl *domain.EmailTemplate) []string {
	seen := make(map[string]struct{})
	for _, src := range []string{tmpl.Subject, tmpl.Content} {
		for _, match := range templateFieldPattern.FindAllStringSubmatch(src, -1) {
			seen[match[1]] = struct{}{}
		}
	}

	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (r *TemplateRenderer) parse(tmpl *domain.EmailTemplate) (*textTemplate.Template, *template.Template, error) {
	subjectTmpl, err := textTemplate.New("subject").Funcs(templateFuncs).Parse(tmpl.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("parse subject: %w", err)
	}
	contentTmpl, err := template.New("content").Funcs(templateFuncs).Parse(tmpl.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("parse content: %w", err)
	}
	return subjectTmpl, contentTmpl, nil
}
