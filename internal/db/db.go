package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		// The profile store is owned by the platform's account service; this
		// creates the shape locally so a standalone deployment still works.
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username TEXT NOT NULL,
            avatar_url TEXT,
            role TEXT NOT NULL DEFAULT 'user'
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL,
            receiver_id INT NOT NULL,
            content TEXT,
            type TEXT NOT NULL DEFAULT 'text'
                CHECK (type IN ('text', 'image', 'document', 'voice', 'call_start', 'call_end')),
            attachment_url TEXT,
            attachment_name TEXT,
            reply_to_id INT,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (content IS NOT NULL OR attachment_url IS NOT NULL),
            CHECK ((attachment_url IS NULL) = (attachment_name IS NULL))
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair
            ON messages (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id), created_at);`,
		`CREATE TABLE IF NOT EXISTS message_reactions (
            message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            kind TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (message_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS call_sessions (
            id SERIAL PRIMARY KEY,
            caller_id INT NOT NULL,
            receiver_id INT NOT NULL,
            kind TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'ongoing',
            started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            ended_at TIMESTAMPTZ,
            duration INT NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_call_sessions_participants
            ON call_sessions (caller_id, receiver_id, started_at DESC);`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id SERIAL PRIMARY KEY,
            recipient_id INT NOT NULL,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            message TEXT NOT NULL,
            related_id INT,
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient
            ON notifications (recipient_id, created_at DESC);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Info().Msg("database migrations applied")
	return nil
}
