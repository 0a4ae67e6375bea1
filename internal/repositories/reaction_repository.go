package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

// ReactionRepository enforces the at-most-one-reaction-per-user invariant
// through upsert semantics on the (message_id, user_id) key.
type ReactionRepository interface {
	Upsert(ctx context.Context, messageID int, userID int, kind string) (models.Reaction, error)
	Delete(ctx context.Context, messageID int, userID int) error
	ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error)
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Upsert inserts the reaction or overwrites the kind of an existing one.
func (r *ReactionRepo) Upsert(ctx context.Context, messageID int, userID int, kind string) (models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.QueryRowxContext(ctx, `INSERT INTO message_reactions (message_id, user_id, kind)
        VALUES ($1, $2, $3)
        ON CONFLICT (message_id, user_id) DO UPDATE SET kind = EXCLUDED.kind, created_at = NOW()
        RETURNING message_id, user_id, kind, created_at`, messageID, userID, kind).
		StructScan(&reaction)
	return reaction, err
}

// Delete removes the user's reaction. Deleting an absent reaction is a no-op.
func (r *ReactionRepo) Delete(ctx context.Context, messageID int, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2`, messageID, userID)
	return err
}

// ListForMessage returns all reactions on a message.
func (r *ReactionRepo) ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions, `SELECT message_id, user_id, kind, created_at
        FROM message_reactions WHERE message_id=$1 ORDER BY created_at ASC`, messageID)
	return reactions, err
}
