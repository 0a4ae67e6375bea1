package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrCallNotFound = errors.New("call session not found")

// CallRepository records call lifecycle transitions. Finalization only
// touches rows still in the ongoing status, so a terminal status is written
// exactly once.
type CallRepository interface {
	Create(ctx context.Context, callerID int, receiverID int, kind string) (models.CallSession, error)
	FinalizeByID(ctx context.Context, sessionID int, status string, duration int, endedAt time.Time) (models.CallSession, error)
	FinalizeLatest(ctx context.Context, userID int, status string, duration int, endedAt time.Time) (models.CallSession, error)
	ListForUser(ctx context.Context, userID int) ([]models.CallSession, error)
	ReapStale(ctx context.Context, olderThan time.Time) (int, error)
}

// CallRepo is a sqlx implementation of CallRepository.
type CallRepo struct {
	db *sqlx.DB
}

// NewCallRepo constructs a CallRepo.
func NewCallRepo(db *sqlx.DB) *CallRepo {
	return &CallRepo{db: db}
}

const callColumns = `id, caller_id, receiver_id, kind, status, started_at, ended_at, duration`

// Create opens a session in the ongoing status.
func (r *CallRepo) Create(ctx context.Context, callerID int, receiverID int, kind string) (models.CallSession, error) {
	var session models.CallSession
	err := r.db.QueryRowxContext(ctx, `INSERT INTO call_sessions (caller_id, receiver_id, kind)
        VALUES ($1, $2, $3) RETURNING `+callColumns, callerID, receiverID, kind).
		StructScan(&session)
	return session, err
}

// FinalizeByID writes the terminal state of a specific session. Returns
// ErrCallNotFound when the row does not exist or has already left ongoing.
func (r *CallRepo) FinalizeByID(ctx context.Context, sessionID int, status string, duration int, endedAt time.Time) (models.CallSession, error) {
	var session models.CallSession
	err := r.db.QueryRowxContext(ctx, `UPDATE call_sessions
        SET status=$2, duration=$3, ended_at=$4
        WHERE id=$1 AND status='ongoing'
        RETURNING `+callColumns, sessionID, status, duration, endedAt).
		StructScan(&session)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CallSession{}, ErrCallNotFound
	}
	return session, err
}

// FinalizeLatest resolves the most recent ongoing session the user
// participates in, as caller or receiver, and finalizes it.
func (r *CallRepo) FinalizeLatest(ctx context.Context, userID int, status string, duration int, endedAt time.Time) (models.CallSession, error) {
	var session models.CallSession
	err := r.db.QueryRowxContext(ctx, `UPDATE call_sessions
        SET status=$2, duration=$3, ended_at=$4
        WHERE id = (
            SELECT id FROM call_sessions
            WHERE (caller_id=$1 OR receiver_id=$1) AND status='ongoing'
            ORDER BY started_at DESC, id DESC LIMIT 1
        )
        RETURNING `+callColumns, userID, status, duration, endedAt).
		StructScan(&session)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CallSession{}, ErrCallNotFound
	}
	return session, err
}

// ListForUser returns the user's call history, newest first.
func (r *CallRepo) ListForUser(ctx context.Context, userID int) ([]models.CallSession, error) {
	var sessions []models.CallSession
	err := r.db.SelectContext(ctx, &sessions, `SELECT `+callColumns+` FROM call_sessions
        WHERE caller_id=$1 OR receiver_id=$1 ORDER BY started_at DESC, id DESC`, userID)
	return sessions, err
}

// ReapStale marks ongoing sessions started before the cutoff as missed.
func (r *CallRepo) ReapStale(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE call_sessions
        SET status='missed', ended_at=NOW()
        WHERE status='ongoing' AND started_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}
