// Package event defines the closed set of domain events flowing between the
// pipeline workers and the connected session sinks.
package event

import (
	"github.com/T4snimul/owlery/domain"
)

// DomainEvent is anything the fan-out stage can deliver to session sinks.
//
// Recipients returns the user ids the event is addressed to; nil means every
// registered session. Fan-out resolves user ids to live sessions at delivery
// time, so a user with several devices receives the event on each of them.
type DomainEvent interface {
	Recipients() []string
}

// SanitizedMessage is a moderated, sequenced, persisted message on its way to
// live sessions. Persistence has already succeeded when this event exists.
type SanitizedMessage struct {
	Message domain.Message
}

func (e SanitizedMessage) Recipients() []string {
	return recipientsOf(e.Message)
}

func recipientsOf(m domain.Message) []string {
	if m.Scope == domain.ScopeDirect {
		return []string{m.SenderID, m.RecipientID}
	}
	return nil
}

// PresenceChanged carries a full snapshot of the presence set. Snapshots are
// re-broadcast on every registry change; the client replaces its local copy
// wholesale, which keeps it consistent through any interleaving of
// connect/disconnect events.
type PresenceChanged struct {
	Entries []domain.PresenceEntry
}

func (e PresenceChanged) Recipients() []string { return nil }

// GroupHistoryReplay is delivered to exactly one joining session, never
// through fan-out.
type GroupHistoryReplay struct {
	SessionID string
	Messages  []domain.Message
}

func (e GroupHistoryReplay) Recipients() []string { return nil }

// ErrorRaised reports a failed request back to the originating session and
// no one else. Only the classification code and a short reason cross the
// wire.
type ErrorRaised struct {
	SessionID string
	Code      string
	Reason    string
}

func (e ErrorRaised) Recipients() []string { return nil }

// DirectHistoryReplay is the bounded replay of one pairwise thread, delivered
// to exactly one requesting session.
type DirectHistoryReplay struct {
	SessionID string
	With      string
	Messages  []domain.Message
}

func (e DirectHistoryReplay) Recipients() []string { return nil }
