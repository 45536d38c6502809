package errors

import "errors"

// Code is the protocol-level classification of a failure. It is the only
// error detail that crosses the transport boundary.
type Code string

const (
	CodeValidation      Code = "VALIDATION"
	CodePersistence     Code = "PERSISTENCE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeCapacity        Code = "CAPACITY"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInternal        Code = "INTERNAL"
)

// Classify maps an internal error to its protocol code. Unknown errors are
// reported as INTERNAL so no wrapped detail leaks to clients.
func Classify(err error) Code {
	switch {
	case errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrTextTooLong),
		errors.Is(err, ErrSelfMessage),
		errors.Is(err, ErrInvalidRequest):
		return CodeValidation
	case errors.Is(err, ErrUnknownRecipient),
		errors.Is(err, ErrUnknownSession):
		return CodeNotFound
	case errors.Is(err, ErrAppendFailed),
		errors.Is(err, ErrHistoryRead):
		return CodePersistence
	case errors.Is(err, ErrSessionQueueFull):
		return CodeCapacity
	case errors.Is(err, ErrInvalidToken):
		return CodeUnauthenticated
	default:
		return CodeInternal
	}
}
