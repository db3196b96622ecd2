package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wineprocure/procurement-api/config"
)

func TestRenderNotification(t *testing.T) {
	n := Notification{
		Template: TemplateQuoteSubmitted,
		To:       "a@x.com",
		RFQID:    "rfq-1",
		RFQTitle: "Corks Q1",
		Producer: "Stellenrust",
		Supplier: "CorkCo",
		Status:   "Responded",
	}

	subject, body, err := RenderNotification(n)
	require.NoError(t, err)
	assert.Equal(t, `New quote on "Corks Q1"`, subject)
	assert.Contains(t, body, "CorkCo has submitted a quote")
	assert.Contains(t, body, "rfq-1")

	n.Template = TemplateQuoteDecided
	n.Status = "accepted"
	subject, body, err = RenderNotification(n)
	require.NoError(t, err)
	assert.Equal(t, `Your quote on "Corks Q1" was accepted`, subject)
	assert.Contains(t, body, "Hello CorkCo")

	n.Template = "rfq_created"
	_, _, err = RenderNotification(n)
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	err := LogNotifier{}.Notify(context.Background(), Notification{Template: TemplateQuoteDecided, To: "s@corkco.com"})
	assert.NoError(t, err)

	err = LogNotifier{}.Notify(context.Background(), Notification{Template: "unknown"})
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	notifier, err := NewNotifier(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, LogNotifier{}, notifier)

	notifier, err = NewNotifier(&config.Config{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     587,
		SMTPFrom:     "noreply@wineprocure.app",
		SMTPUsername: "mailer",
		SMTPPassword: "secret",
	})
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, notifier)
}

func TestSMTPNotifier_RejectsBadRecipient(t *testing.T) {
	notifier, err := NewSMTPNotifier(&config.Config{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		SMTPFrom: "noreply@wineprocure.app",
	})
	require.NoError(t, err)

	err = notifier.Notify(context.Background(), Notification{Template: TemplateQuoteSubmitted, To: "not an address"})
	assert.ErrorContains(t, err, "invalid recipient address")
}

func TestMockNotifier(t *testing.T) {
	mock := NewMockNotifier()
	require.NoError(t, mock.Notify(context.Background(), Notification{Template: TemplateQuoteSubmitted}))
	assert.Len(t, mock.Sent(), 1)

	mock.Clear()
	assert.Empty(t, mock.Sent())
}
