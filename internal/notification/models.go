// internal/notification/models.go

package notification

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Type tags a notification with the event that produced it.
type Type string

const (
	TypeMatch   Type = "match"
	TypeMessage Type = "message"
	TypeSystem  Type = "system"
)

// Channel is an outbound delivery path next to the in-app store.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Notification is one stored in-app notification.
type Notification struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Type      Type       `json:"type" db:"type"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	Data      Data       `json:"data" db:"data"`
	IsRead    bool       `json:"is_read" db:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Data is the free-form JSONB payload attached to a notification.
type Data map[string]interface{}

// Scan implements sql.Scanner.
func (d *Data) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Data{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("cannot scan %T into notification data", value)
	}
}

// Value implements driver.Valuer.
func (d Data) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Strings flattens the payload for transports that only carry string maps (FCM data).
func (d Data) Strings() map[string]string {
	out := make(map[string]string, len(d))
	for k, v := range d {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// PushToken is a registered device token.
type PushToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Platform  Platform  `json:"platform" db:"platform"`
	Token     string    `json:"token" db:"token"`
	DeviceID  string    `json:"device_id" db:"device_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Contact holds the out-of-app addresses of a user. Either may be missing.
type Contact struct {
	UserID      int64   `db:"user_id"`
	DisplayName string  `db:"display_name"`
	Email       *string `db:"email"`
	Phone       *string `db:"phone"`
}

type PushNotification struct {
	Tokens      []string
	Title       string
	Body        string
	Data        map[string]string
	Priority    Priority
	Sound       string
	Badge       int
	CollapseKey string
}

type EmailNotification struct {
	To       string
	ToName   string
	Subject  string
	Body     string
	HTMLBody string
}

type SMSNotification struct {
	To      string
	Message string
}
