// internal/common/database/migrations.go
// Idempotent schema setup run at startup

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations are applied in order; each statement must be safe to re-run.
var migrations = []string{
	// Public matching attributes of a user
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id BIGINT PRIMARY KEY,
		display_name VARCHAR(100) NOT NULL DEFAULT '',
		vibe_score INTEGER NOT NULL DEFAULT 0 CHECK (vibe_score >= 0),
		location_lat DOUBLE PRECISION,
		location_lng DOUBLE PRECISION,
		city VARCHAR(120),
		bio TEXT,
		email VARCHAR(255),
		phone VARCHAR(20),
		last_active TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_last_active ON profiles(last_active DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_city ON profiles(city)`,

	// Vibe echoes: ephemeral mood/activity posts
	`CREATE TABLE IF NOT EXISTS vibe_echoes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
		mood VARCHAR(20) NOT NULL,
		activity VARCHAR(60),
		content TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vibe_echoes_user_created ON vibe_echoes(user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS vibe_echo_likes (
		echo_id BIGINT NOT NULL REFERENCES vibe_echoes(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (echo_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vibe_echo_likes_user ON vibe_echo_likes(user_id)`,

	// Matches are stored once per unordered pair (user_a < user_b)
	`CREATE TABLE IF NOT EXISTS vibe_matches (
		id BIGSERIAL PRIMARY KEY,
		user_a BIGINT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
		user_b BIGINT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
		compatibility_score DOUBLE PRECISION NOT NULL,
		matching_reasons JSONB NOT NULL DEFAULT '{}',
		chat_started BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT vibe_matches_pair_key UNIQUE (user_a, user_b),
		CONSTRAINT vibe_matches_pair_order CHECK (user_a < user_b)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vibe_matches_user_b ON vibe_matches(user_b)`,

	// In-app notifications and device tokens
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		type VARCHAR(50) NOT NULL,
		title VARCHAR(200) NOT NULL,
		message TEXT NOT NULL,
		data JSONB NOT NULL DEFAULT '{}',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS push_tokens (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		platform VARCHAR(20) NOT NULL,
		token TEXT NOT NULL,
		device_id VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, device_id)
	)`,
}

// RunMigrations creates or updates every table the service needs.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
