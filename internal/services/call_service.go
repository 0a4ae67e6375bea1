package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

// CallService tracks call session lifecycle independent of whether the
// signaling legs succeed.
type CallService struct {
	calls repositories.CallRepository
}

// NewCallService constructs a CallService.
func NewCallService(calls repositories.CallRepository) *CallService {
	return &CallService{calls: calls}
}

// Start opens an ongoing session when signaling begins. The returned session
// id travels with the incoming_call push and comes back on finalize.
func (s *CallService) Start(ctx context.Context, callerID int, receiverID int, kind string) (models.CallSession, error) {
	if receiverID <= 0 {
		return models.CallSession{}, ErrInvalidReceiver
	}
	if !models.ValidCallKind(kind) {
		return models.CallSession{}, ErrInvalidKind
	}
	return s.calls.Create(ctx, callerID, receiverID, kind)
}

// Finalize writes the terminal state of a session exactly once. With a
// session id it addresses that row; without one it falls back to the user's
// latest ongoing session. A session that cannot be found is a benign no-op,
// reported through the bool: call-end signals race with client reconnects.
func (s *CallService) Finalize(ctx context.Context, userID int, sessionID int, status string, duration int) (models.CallSession, bool, error) {
	if !models.TerminalCallStatus(status) {
		return models.CallSession{}, false, ErrInvalidStatus
	}

	endedAt := time.Now()
	var (
		session models.CallSession
		err     error
	)
	if sessionID > 0 {
		session, err = s.calls.FinalizeByID(ctx, sessionID, status, duration, endedAt)
	} else {
		session, err = s.calls.FinalizeLatest(ctx, userID, status, duration, endedAt)
	}
	if errors.Is(err, repositories.ErrCallNotFound) {
		return models.CallSession{}, false, nil
	}
	if err != nil {
		return models.CallSession{}, false, err
	}
	return session, true, nil
}

// History returns the user's call sessions, newest first.
func (s *CallService) History(ctx context.Context, userID int) ([]models.CallSession, error) {
	return s.calls.ListForUser(ctx, userID)
}

// RunReaper periodically marks ongoing sessions older than the window as
// missed. An ongoing call with no terminating event would otherwise stay
// open forever.
func (s *CallService) RunReaper(ctx context.Context, every time.Duration, window time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped, err := s.calls.ReapStale(ctx, time.Now().Add(-window))
			if err != nil {
				log.Error().Err(err).Msg("call reaper failed")
				continue
			}
			if reaped > 0 {
				log.Info().Int("count", reaped).Msg("stale ongoing calls marked missed")
			}
		}
	}
}
