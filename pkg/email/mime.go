package email

import (
	"bytes"
	"io"

	"github.com/go-mail/mail/v2"
)

// composeMIME builds the multipart message sent over SMTP and, for
// attachments or custom headers, through SES raw sends. Bcc is kept as a
// header for the envelope but never written into the body.
func composeMIME(message *Message, cfg *Config) *mail.Message {
	m := mail.NewMessage()

	fromName := message.FromName
	if fromName == "" {
		fromName = cfg.DefaultFromName
	}
	m.SetAddressHeader("From", fromAddress(message.From, cfg.DefaultFrom), fromName)
	m.SetHeader("To", message.To...)
	if len(message.CC) > 0 {
		m.SetHeader("Cc", message.CC...)
	}
	if len(message.BCC) > 0 {
		m.SetHeader("Bcc", message.BCC...)
	}
	if message.ReplyTo != "" {
		m.SetHeader("Reply-To", message.ReplyTo)
	}
	for k, v := range message.Headers {
		m.SetHeader(k, v)
	}
	m.SetHeader("Subject", message.Subject)

	switch {
	case message.Text != "" && message.HTML != "":
		m.SetBody("text/plain", message.Text)
		m.AddAlternative("text/html", message.HTML)
	case message.HTML != "":
		m.SetBody("text/html", message.HTML)
	default:
		m.SetBody("text/plain", message.Text)
	}

	for _, attachment := range message.Attachments {
		content := attachment.Content
		settings := []mail.FileSetting{
			mail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if attachment.ContentType != "" {
			settings = append(settings, mail.SetHeader(map[string][]string{
				"Content-Type": {attachment.ContentType},
			}))
		}
		m.Attach(attachment.Filename, settings...)
	}

	return m
}

func renderMIME(message *Message, cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := composeMIME(message, cfg).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
