package domain

import "time"

// Command is a validated sending intent entering the pipeline.
type Command interface {
	CommandScope() Scope
}

type PostGroupMessageCommand struct {
	SenderID     string
	SenderName   string
	SenderAvatar string
	Text         string
	CreatedAt    time.Time
}

func (c PostGroupMessageCommand) CommandScope() Scope {
	return ScopeGroup
}

type PostDirectMessageCommand struct {
	SenderID     string
	SenderName   string
	SenderAvatar string
	RecipientID  string
	Text         string
	CreatedAt    time.Time
}

func (c PostDirectMessageCommand) CommandScope() Scope {
	return ScopeDirect
}

// Pair resolves the canonical thread key for the command.
func (c PostDirectMessageCommand) Pair() PairKey {
	return NewPairKey(c.SenderID, c.RecipientID)
}
