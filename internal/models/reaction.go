package models

import "time"

// Reaction kinds. A user holds at most one reaction per message; re-reacting
// overwrites the kind.
const (
	ReactionLike  = "like"
	ReactionLove  = "love"
	ReactionLaugh = "laugh"
	ReactionWow   = "wow"
	ReactionSad   = "sad"
	ReactionAngry = "angry"
)

// Reaction is keyed uniquely by (message_id, user_id).
type Reaction struct {
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Kind      string    `db:"kind" json:"kind"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidReactionKind reports whether kind is one of the closed reaction set.
func ValidReactionKind(kind string) bool {
	switch kind {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}
