// internal/notification/email.go

package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

type EmailSender interface {
	SendEmail(ctx context.Context, n *EmailNotification) error
}

// SendGridEmailSender uses the SendGrid v3 mail API.
type SendGridEmailSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridEmailSender(apiKey, from, fromName string) (*SendGridEmailSender, error) {
	if apiKey == "" || from == "" {
		return nil, errors.New("incomplete SendGrid configuration")
	}
	return &SendGridEmailSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}, nil
}

func (s *SendGridEmailSender) SendEmail(ctx context.Context, n *EmailNotification) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		n.Subject,
		mail.NewEmail(n.ToName, n.To),
		n.Body,
		n.HTMLBody,
	)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}
	return nil
}

// SMTPEmailSender sends through a plain SMTP relay.
type SMTPEmailSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPEmailSender(host string, port int, username, password, from, fromName string) (*SMTPEmailSender, error) {
	if host == "" || from == "" {
		return nil, errors.New("incomplete SMTP configuration")
	}
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.TLSConfig = &tls.Config{ServerName: host}
	return &SMTPEmailSender{dialer: dialer, from: from, fromName: fromName}, nil
}

// SendEmail ignores ctx; gomail dials synchronously.
func (s *SMTPEmailSender) SendEmail(ctx context.Context, n *EmailNotification) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", n.To, n.ToName)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)
	if n.HTMLBody != "" {
		m.AddAlternative("text/html", n.HTMLBody)
	}
	return s.dialer.DialAndSend(m)
}

type MockEmailSender struct {
	mu   sync.Mutex
	Sent []*EmailNotification
}

func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

func (m *MockEmailSender) SendEmail(ctx context.Context, n *EmailNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, n)
	return nil
}

func (m *MockEmailSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #ff6a88 0%, #8e54e9 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: white; padding: 30px; border: 1px solid #e0e0e0; border-radius: 0 0 10px 10px; }
        .footer { text-align: center; padding: 20px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="header"><h1>{{.Title}}</h1></div>
    <div class="content"><p>Hi {{.Name}},</p><p>{{.Message}}</p></div>
    <div class="footer"><p>{{.AppName}}</p></div>
</body>
</html>
`))

// renderEmail builds the HTML body. Values are escaped by html/template.
func renderEmail(appName, name, title, message string) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, map[string]string{
		"AppName": appName,
		"Name":    name,
		"Title":   title,
		"Message": message,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
