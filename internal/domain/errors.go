package domain

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyMessage    = errors.New("message text is empty")
	ErrMessageTooLarge = errors.New("message too large")

	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotParticipant  = errors.New("user not participant")

	ErrConversationNotFound = errors.New("conversation not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrDraftNotFound        = errors.New("draft not found")

	ErrTransientDelivery = errors.New("transient delivery failure")
	ErrSessionClosed     = errors.New("session closed")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLarge)
}

func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrNotParticipant)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrDraftNotFound)
}
