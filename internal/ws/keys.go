package ws

import "fmt"

// PersonalRoom is the implicit per-user room, auto-joined at connect. Direct
// user-addressed pushes (notifications, incoming-call signals) target it.
func PersonalRoom(userID int) string {
	return fmt.Sprintf("user_%d", userID)
}

// ConversationRoom derives the canonical room key for a 1:1 conversation.
// The pair is sorted so both participants compute the same key regardless of
// argument order. The conversation is not a persisted entity; this key is its
// identity for presence purposes.
func ConversationRoom(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("conversation_%d_%d", a, b)
}
