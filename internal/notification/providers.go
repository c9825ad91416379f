// internal/notification/providers.go

package notification

import (
	"context"
	"fmt"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
	"github.com/imadgeboyega/sparkvibe-backend/internal/config"
)

// NewPushSender picks the push provider named in cfg.
func NewPushSender(ctx context.Context, cfg config.NotificationConfig, log *logger.Logger) (PushSender, error) {
	switch cfg.PushProvider {
	case "fcm":
		sender, err := NewFCMPushSender(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCredentialsJSON, log)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "mock", "":
		return NewMockPushSender(), nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.PushProvider)
	}
}

func NewEmailSender(cfg config.NotificationConfig) (EmailSender, error) {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender, err := NewSendGridEmailSender(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "smtp":
		sender, err := NewSMTPEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailFromName)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "mock", "":
		return NewMockEmailSender(), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
}

func NewSMSSender(cfg config.NotificationConfig, log *logger.Logger) (SMSSender, error) {
	switch cfg.SMSProvider {
	case "twilio":
		sender, err := NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, log)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "mock", "":
		return NewMockSMSSender(), nil
	default:
		return nil, fmt.Errorf("unknown SMS provider %q", cfg.SMSProvider)
	}
}
