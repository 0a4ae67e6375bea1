package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetConversation(ctx context.Context, userID int, counterpartID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	MarkConversationRead(ctx context.Context, readerID int, counterpartID int) (int, error)
	ListPreviews(ctx context.Context, userID int) ([]models.ConversationPreview, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, receiver_id, content, type, attachment_url, attachment_name, reply_to_id, is_read, created_at`

// CreateMessage stores a message and returns it hydrated with the sender
// display name and resolved reply context.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var stored models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content, type, attachment_url, attachment_name, reply_to_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+messageColumns,
		msg.SenderID, msg.ReceiverID, msg.Content, msg.Type, msg.AttachmentURL, msg.AttachmentName, msg.ReplyToID).
		StructScan(&stored)
	if err != nil {
		return models.Message{}, err
	}

	if err := r.hydrate(ctx, &stored); err != nil {
		return models.Message{}, err
	}
	return stored, nil
}

// GetConversation returns the ordered message history between two users,
// with reply context and reactions attached. Insertion order is authoritative.
func (r *MessageRepo) GetConversation(ctx context.Context, userID int, counterpartID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY id ASC`, userID, counterpartID)
	if err != nil {
		return nil, err
	}

	for i := range msgs {
		if err := r.hydrate(ctx, &msgs[i]); err != nil {
			return nil, err
		}
		var reactions []models.Reaction
		if err := r.db.SelectContext(ctx, &reactions, `SELECT message_id, user_id, kind, created_at
            FROM message_reactions WHERE message_id=$1 ORDER BY created_at ASC`, msgs[i].ID); err != nil {
			return nil, err
		}
		msgs[i].Reactions = reactions
	}
	return msgs, nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkConversationRead flags every unread message addressed to the reader
// from the counterpart as read, returning how many rows changed. Invoked as
// a secondary effect of reading the history.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, readerID int, counterpartID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE
        WHERE receiver_id=$1 AND sender_id=$2 AND is_read = FALSE`, readerID, counterpartID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// ListPreviews returns the latest message and unread count per counterpart.
func (r *MessageRepo) ListPreviews(ctx context.Context, userID int) ([]models.ConversationPreview, error) {
	query := `SELECT DISTINCT ON (counterpart) ` + messageColumns + `,
        CASE WHEN sender_id=$1 THEN receiver_id ELSE sender_id END AS counterpart
        FROM messages
        WHERE sender_id=$1 OR receiver_id=$1
        ORDER BY counterpart, id DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var previews []models.ConversationPreview
	for rows.Next() {
		var row struct {
			models.Message
			Counterpart int `db:"counterpart"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		msg := row.Message
		if err := r.hydrate(ctx, &msg); err != nil {
			return nil, err
		}

		var unread int
		if err := r.db.GetContext(ctx, &unread, `SELECT COUNT(*) FROM messages
            WHERE receiver_id=$1 AND sender_id=$2 AND is_read = FALSE`, userID, row.Counterpart); err != nil {
			return nil, err
		}

		previews = append(previews, models.ConversationPreview{
			CounterpartID: row.Counterpart,
			LastMessage:   &msg,
			UnreadCount:   unread,
			UpdatedAt:     msg.CreatedAt,
		})
	}
	return previews, rows.Err()
}

// hydrate attaches the sender display name and resolves the reply reference.
// A dangling reply_to_id resolves to a nil ReplyTo, not an error.
func (r *MessageRepo) hydrate(ctx context.Context, msg *models.Message) error {
	var name string
	err := r.db.GetContext(ctx, &name, `SELECT username FROM users WHERE id=$1`, msg.SenderID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	msg.SenderName = name

	if msg.ReplyToID == nil {
		return nil
	}
	var ref models.ReplyRef
	err = r.db.GetContext(ctx, &ref, `SELECT m.id, m.sender_id, m.content, m.type, COALESCE(u.username, '') AS sender_name
        FROM messages m LEFT JOIN users u ON u.id = m.sender_id WHERE m.id=$1`, *msg.ReplyToID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	msg.ReplyTo = &ref
	return nil
}
