package services

import "errors"

// Validation failures are terminal for the single operation, never for the
// connection carrying it.
var (
	ErrInvalidReceiver = errors.New("invalid receiver id")
	ErrEmptyMessage    = errors.New("message needs content or an attachment")
	ErrBadAttachment   = errors.New("attachment needs both url and name")
	ErrInvalidType     = errors.New("invalid message type")
	ErrInvalidKind     = errors.New("invalid call kind")
	ErrInvalidStatus   = errors.New("invalid terminal call status")
	ErrInvalidReaction = errors.New("invalid reaction kind")
)
