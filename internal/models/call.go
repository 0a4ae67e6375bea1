package models

import "time"

// Call kinds.
const (
	CallKindVoice = "voice"
	CallKindVideo = "video"
)

// Call session statuses. Ongoing is the only non-terminal status; a session
// transitions out of it exactly once.
const (
	CallStatusOngoing   = "ongoing"
	CallStatusMissed    = "missed"
	CallStatusAnswered  = "answered"
	CallStatusRejected  = "rejected"
	CallStatusCancelled = "cancelled"
)

// CallSession is an append-only call history entry. The row id doubles as the
// session identifier carried through the signaling handshake so finalize can
// address a specific call instead of guessing the latest one.
type CallSession struct {
	ID         int        `db:"id" json:"id"`
	CallerID   int        `db:"caller_id" json:"caller_id"`
	ReceiverID int        `db:"receiver_id" json:"receiver_id"`
	Kind       string     `db:"kind" json:"kind"`
	Status     string     `db:"status" json:"status"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	Duration   int        `db:"duration" json:"duration"`
}

// ValidCallKind reports whether kind is voice or video.
func ValidCallKind(kind string) bool {
	return kind == CallKindVoice || kind == CallKindVideo
}

// TerminalCallStatus reports whether status is a valid terminal state.
func TerminalCallStatus(status string) bool {
	switch status {
	case CallStatusMissed, CallStatusAnswered, CallStatusRejected, CallStatusCancelled:
		return true
	}
	return false
}
