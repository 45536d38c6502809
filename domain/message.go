// Package domain contains core concepts of the Owlery chat system.
// This file defines Message records and related rules.
// Messages are immutable once assigned a sequence number.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Scope is the closed set of conversation kinds a Message can belong to.
type Scope string

const (
	ScopeGroup  Scope = "group"
	ScopeDirect Scope = "direct"
)

// Message represents an immutable chat event.
// Seq is server-assigned and monotonic within the message's scope:
// the single group log, or one pair log for a direct thread.
type Message struct {
	ID           uuid.UUID
	Seq          uint64
	Scope        Scope
	SenderID     string
	SenderName   string
	SenderAvatar string
	RecipientID  string // set only when Scope == ScopeDirect
	Text         string
	CreatedAt    time.Time
}

// IsDirect reports whether the message belongs to a pairwise thread.
func (m Message) IsDirect() bool {
	return m.Scope == ScopeDirect
}
