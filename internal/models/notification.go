package models

import "time"

// Notification is a durable per-recipient event record. Only the read flag is
// ever mutated.
type Notification struct {
	ID          int       `db:"id" json:"id"`
	RecipientID int       `db:"recipient_id" json:"recipient_id"`
	Type        string    `db:"type" json:"type"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	RelatedID   *int      `db:"related_id" json:"related_id,omitempty"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// User is the read-only view of the platform's profile store needed to
// hydrate sender display fields.
type User struct {
	ID        int    `db:"id" json:"id"`
	Username  string `db:"username" json:"username"`
	AvatarURL string `db:"avatar_url" json:"avatar_url,omitempty"`
	Role      string `db:"role" json:"role"`
}
