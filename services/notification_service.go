package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"text/template"

	"github.com/wineprocure/procurement-api/config"
	"github.com/wneessen/go-mail"
)

const (
	// TemplateQuoteSubmitted tells a producer a supplier has quoted
	TemplateQuoteSubmitted = "quote_submitted"
	// TemplateQuoteDecided tells a supplier their quote was accepted or rejected
	TemplateQuoteDecided = "quote_decided"
)

// Notification is one email to one counterparty of an RFQ
type Notification struct {
	Template string
	To       string
	RFQID    string
	RFQTitle string
	Producer string
	Supplier string
	Status   string
}

// Notifier delivers notifications. Delivery is best-effort: callers log
// failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

var mailTemplates = map[string]mailTemplate{
	TemplateQuoteSubmitted: {
		subject: template.Must(template.New("subject").Parse(`New quote on "{{.RFQTitle}}"`)),
		body: template.Must(template.New("body").Parse(`Hello {{.Producer}},

{{.Supplier}} has submitted a quote on your request "{{.RFQTitle}}" (ref {{.RFQID}}).
The request is now {{.Status}}. Sign in to review and accept or reject the quote.
`)),
	},
	TemplateQuoteDecided: {
		subject: template.Must(template.New("subject").Parse(`Your quote on "{{.RFQTitle}}" was {{.Status}}`)),
		body: template.Must(template.New("body").Parse(`Hello {{.Supplier}},

{{.Producer}} has marked your quote on "{{.RFQTitle}}" (ref {{.RFQID}}) as {{.Status}}.
`)),
	},
}

// RenderNotification returns the subject and plain-text body for n
func RenderNotification(n Notification) (string, string, error) {
	tmpl, ok := mailTemplates[n.Template]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", n.Template)
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, n); err != nil {
		return "", "", fmt.Errorf("failed to render subject: %w", err)
	}
	if err := tmpl.body.Execute(&body, n); err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}
	return subject.String(), body.String(), nil
}

// SMTPNotifier sends notifications through an SMTP relay
type SMTPNotifier struct {
	client *mail.Client
	from   string
}

// NewSMTPNotifier builds an SMTP notifier from the startup configuration
func NewSMTPNotifier(cfg *config.Config) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPNotifier{client: client, from: cfg.SMTPFrom}, nil
}

// Notify renders and sends n
func (s *SMTPNotifier) Notify(ctx context.Context, n Notification) error {
	subject, body, err := RenderNotification(n)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(n.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s email: %w", n.Template, err)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of sending them.
// Used when no SMTP relay is configured.
type LogNotifier struct{}

// Notify logs the rendered notification
func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	subject, _, err := RenderNotification(n)
	if err != nil {
		return err
	}
	log.Printf("Notification %s to %s: %s", n.Template, n.To, subject)
	return nil
}

// NewNotifier picks the SMTP notifier when a relay is configured
func NewNotifier(cfg *config.Config) (Notifier, error) {
	if !cfg.SMTPEnabled() {
		log.Println("SMTP_HOST not set, notifications will be logged only")
		return LogNotifier{}, nil
	}
	return NewSMTPNotifier(cfg)
}
