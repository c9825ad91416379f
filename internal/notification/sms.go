// internal/notification/sms.go

package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
)

type SMSSender interface {
	SendSMS(ctx context.Context, n *SMSNotification) error
}

// TwilioSMSSender sends text messages through the Twilio REST API.
type TwilioSMSSender struct {
	client *twilio.RestClient
	from   string
	log    *logger.Logger
}

func NewTwilioSMSSender(accountSID, authToken, from string, log *logger.Logger) (*TwilioSMSSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, errors.New("incomplete Twilio configuration")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMSSender{client: client, from: from, log: log}, nil
}

// SendSMS ignores ctx; the Twilio client has no context-aware call.
func (s *TwilioSMSSender) SendSMS(ctx context.Context, n *SMSNotification) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.To)
	params.SetFrom(s.from)
	params.SetBody(n.Message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.Sid != nil {
		s.log.Debug("sms sent", "sid", *resp.Sid)
	}
	return nil
}

type MockSMSSender struct {
	mu   sync.Mutex
	Sent []*SMSNotification
}

func NewMockSMSSender() *MockSMSSender {
	return &MockSMSSender{}
}

func (m *MockSMSSender) SendSMS(ctx context.Context, n *SMSNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, n)
	return nil
}

func (m *MockSMSSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
