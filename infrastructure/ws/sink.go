package ws

import (
	"context"
	"sync"

	"github.com/T4snimul/owlery/domain/event"
	"github.com/T4snimul/owlery/errors"
)

// SessionSink is the bounded outbound queue of one connection, drained by
// the connection's write pump. Consume never blocks the shared broadcast
// path: a full queue triggers the overflow callback exactly once (forcible
// disconnect) and reports a capacity error that fan-out logs and swallows.
// The session recovers by reconnecting and replaying history.
type SessionSink struct {
	sessionID string
	out       chan event.DomainEvent
	overflow  func()
	once      sync.Once
}

func NewSessionSink(sessionID string, bufferSize int, overflow func()) *SessionSink {
	return &SessionSink{
		sessionID: sessionID,
		out:       make(chan event.DomainEvent, bufferSize),
		overflow:  overflow,
	}
}

func (s *SessionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.out <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.once.Do(s.overflow)
		return errors.ErrSessionQueueFull
	}
}

// Events is drained exclusively by the write pump.
func (s *SessionSink) Events() <-chan event.DomainEvent {
	return s.out
}
