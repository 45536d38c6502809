package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Validation failures, reported only to the originating caller.
	ErrEmptyText      = fmt.Errorf("message text is empty")
	ErrTextTooLong    = fmt.Errorf("message text exceeds the maximum length")
	ErrSelfMessage    = fmt.Errorf("direct message addressed to its own sender")
	ErrInvalidRequest = fmt.Errorf("invalid request")

	// Lookup failures.
	ErrUnknownRecipient = fmt.Errorf("recipient is not a known identity")
	ErrUnknownSession   = fmt.Errorf("session is not registered")

	// Persistence failures abort the send before any broadcast.
	ErrAppendFailed = fmt.Errorf("history append failed")
	ErrHistoryRead  = fmt.Errorf("history read failed")

	// Capacity failures degrade a single session, never the sender.
	ErrSessionQueueFull = fmt.Errorf("session outbound queue is full")

	ErrInvalidToken = fmt.Errorf("invalid or expired token")
)
