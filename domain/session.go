package domain

import "time"

// Session is one active connection instance, distinct from the persistent
// user identity it represents. A user may hold several concurrent sessions
// (multi-device). Sessions exist only while their transport connection is
// open and are owned exclusively by the registry.
type Session struct {
	ID          string
	UserID      string
	DisplayName string
	AvatarRef   string
	ConnectedAt time.Time
}
