// internal/notification/repository.go

package notification

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrContactNotFound = errors.New("contact not found")

type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetUserPushTokens(ctx context.Context, userID int64) ([]*PushToken, error)
	DeactivatePushTokens(ctx context.Context, tokens []string) error
	GetContact(ctx context.Context, userID int64) (*Contact, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateNotification(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, data, is_read)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		n.UserID, n.Type, n.Title, n.Message, n.Data,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *postgresRepository) GetUserPushTokens(ctx context.Context, userID int64) ([]*PushToken, error) {
	query := `
		SELECT id, user_id, platform, token, device_id, is_active, created_at, updated_at
		FROM push_tokens
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY updated_at DESC`

	var tokens []*PushToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeactivatePushTokens marks tokens FCM reported as unregistered.
func (r *postgresRepository) DeactivatePushTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE push_tokens SET is_active = FALSE, updated_at = NOW() WHERE token IN (?)`, tokens)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

func (r *postgresRepository) GetContact(ctx context.Context, userID int64) (*Contact, error) {
	var c Contact
	query := `SELECT user_id, display_name, email, phone FROM profiles WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &c, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}
