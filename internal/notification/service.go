// internal/notification/service.go

package notification

import (
	"context"
	"fmt"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/config"
)

// Service stores in-app notifications and fans them out to the enabled
// outbound channels. Only the in-app write can fail a Notify call.
type Service struct {
	repo  Repository
	push  PushSender
	email EmailSender
	sms   SMSSender
	cfg   config.NotificationConfig
	log   *logger.Logger
}

// NewService wires the senders. A nil sender disables its channel whatever
// the config says.
func NewService(
	repo Repository,
	push PushSender,
	email EmailSender,
	sms SMSSender,
	cfg config.NotificationConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:  repo,
		push:  push,
		email: email,
		sms:   sms,
		cfg:   cfg,
		log:   log,
	}
}

// Notify records the notification for userID and attempts every enabled channel.
func (s *Service) Notify(ctx context.Context, userID int64, notificationType, title, message string, data map[string]interface{}) error {
	n := &Notification{
		UserID:  userID,
		Type:    Type(notificationType),
		Title:   title,
		Message: message,
		Data:    Data(data),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		recordDelivery(ChannelInApp, err)
		return fmt.Errorf("store notification: %w", err)
	}
	recordDelivery(ChannelInApp, nil)

	log := s.log.With("user_id", userID, "notification_id", n.ID, "type", n.Type)

	if s.pushEnabled() {
		if err := s.sendPush(ctx, n); err != nil {
			log.Warn("push notification failed", "error", err)
		}
	}

	if !s.emailEnabled() && !s.smsEnabled() {
		return nil
	}

	contact, err := s.repo.GetContact(ctx, userID)
	if err != nil {
		log.Warn("contact lookup failed", "error", err)
		return nil
	}

	if s.emailEnabled() {
		if err := s.sendEmail(ctx, contact, n); err != nil {
			log.Warn("email notification failed", "error", err)
		}
	}
	if s.smsEnabled() {
		if err := s.sendSMS(ctx, contact, n); err != nil {
			log.Warn("sms notification failed", "error", err)
		}
	}
	return nil
}

func (s *Service) pushEnabled() bool  { return s.cfg.EnablePush && s.push != nil }
func (s *Service) emailEnabled() bool { return s.cfg.EnableEmail && s.email != nil }
func (s *Service) smsEnabled() bool   { return s.cfg.EnableSMS && s.sms != nil }

func (s *Service) sendPush(ctx context.Context, n *Notification) error {
	tokens, err := s.repo.GetUserPushTokens(ctx, n.UserID)
	if err != nil {
		recordDelivery(ChannelPush, err)
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		recordSkipped(ChannelPush)
		return nil
	}

	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Token
	}

	payload := n.Data.Strings()
	payload["notification_id"] = fmt.Sprint(n.ID)
	payload["type"] = string(n.Type)

	stale, err := s.push.SendPush(ctx, &PushNotification{
		Tokens:      values,
		Title:       n.Title,
		Body:        n.Message,
		Data:        payload,
		Priority:    PriorityHigh,
		Sound:       "default",
		CollapseKey: string(n.Type),
	})
	if len(stale) > 0 {
		if derr := s.repo.DeactivatePushTokens(ctx, stale); derr != nil {
			s.log.Warn("failed to deactivate stale push tokens", "count", len(stale), "error", derr)
		} else {
			staleTokens.Add(float64(len(stale)))
		}
	}
	recordDelivery(ChannelPush, err)
	return err
}

func (s *Service) sendEmail(ctx context.Context, c *Contact, n *Notification) error {
	if c.Email == nil || *c.Email == "" {
		recordSkipped(ChannelEmail)
		return nil
	}

	html, err := renderEmail(s.cfg.EmailFromName, c.DisplayName, n.Title, n.Message)
	if err != nil {
		recordDelivery(ChannelEmail, err)
		return fmt.Errorf("render email: %w", err)
	}

	err = s.email.SendEmail(ctx, &EmailNotification{
		To:       *c.Email,
		ToName:   c.DisplayName,
		Subject:  n.Title,
		Body:     n.Message,
		HTMLBody: html,
	})
	recordDelivery(ChannelEmail, err)
	return err
}

func (s *Service) sendSMS(ctx context.Context, c *Contact, n *Notification) error {
	if c.Phone == nil || *c.Phone == "" {
		recordSkipped(ChannelSMS)
		return nil
	}
	err := s.sms.SendSMS(ctx, &SMSNotification{
		To:      *c.Phone,
		Message: fmt.Sprintf("%s: %s", n.Title, n.Message),
	})
	recordDelivery(ChannelSMS, err)
	return err
}
