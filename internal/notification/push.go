// internal/notification/push.go

package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
)

// PushSender delivers to device tokens. It returns the tokens the provider
// reported as no longer registered so callers can deactivate them.
type PushSender interface {
	SendPush(ctx context.Context, n *PushNotification) (stale []string, err error)
}

var errNoTokens = errors.New("no tokens provided")

// FCMPushSender sends through Firebase Cloud Messaging.
type FCMPushSender struct {
	client *messaging.Client
	log    *logger.Logger
}

// NewFCMPushSender initialises the Firebase app from a credentials file or
// inline JSON. The file wins when both are set.
func NewFCMPushSender(ctx context.Context, credentialsPath, credentialsJSON string, log *logger.Logger) (*FCMPushSender, error) {
	var opt option.ClientOption
	switch {
	case credentialsPath != "":
		opt = option.WithCredentialsFile(credentialsPath)
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	default:
		return nil, errors.New("firebase credentials path or JSON must be set")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return &FCMPushSender{client: client, log: log}, nil
}

func (s *FCMPushSender) SendPush(ctx context.Context, n *PushNotification) ([]string, error) {
	if len(n.Tokens) == 0 {
		return nil, errNoTokens
	}

	msg := &messaging.MulticastMessage{
		Tokens: n.Tokens,
		Data:   n.Data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority:    androidPriority(n.Priority),
			CollapseKey: n.CollapseKey,
			Notification: &messaging.AndroidNotification{
				Sound:       n.Sound,
				ClickAction: "FLUTTER_NOTIFICATION_CLICK",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": apnsPriority(n.Priority)},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: n.Title, Body: n.Body},
					Badge: &n.Badge,
					Sound: n.Sound,
				},
			},
		},
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, err
	}

	var stale []string
	for i, r := range resp.Responses {
		if r.Error == nil {
			continue
		}
		if messaging.IsUnregistered(r.Error) {
			stale = append(stale, n.Tokens[i])
			continue
		}
		s.log.Warn("push delivery failed", "token_index", i, "error", r.Error)
	}

	if resp.SuccessCount == 0 && len(stale) < len(n.Tokens) {
		return stale, fmt.Errorf("all %d push messages failed", len(n.Tokens))
	}
	s.log.Debug("push sent", "success", resp.SuccessCount, "failure", resp.FailureCount)
	return stale, nil
}

func androidPriority(p Priority) string {
	if p == PriorityLow {
		return "normal"
	}
	return "high"
}

func apnsPriority(p Priority) string {
	if p == PriorityLow {
		return "5"
	}
	return "10"
}

// MockPushSender records pushes instead of sending them.
type MockPushSender struct {
	mu   sync.Mutex
	Sent []*PushNotification
	Err  error
}

func NewMockPushSender() *MockPushSender {
	return &MockPushSender{}
}

func (m *MockPushSender) SendPush(ctx context.Context, n *PushNotification) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Sent = append(m.Sent, n)
	return nil, nil
}

func (m *MockPushSender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
