package domain

// Profile is the display identity resolved for a user id. It mirrors what
// the upstream directory service knows about a wizard; the chat core only
// caches it to render presence entries and validate recipients.
type Profile struct {
	ID     string
	Name   string
	Roll   string
	Avatar string
}

// PresenceEntry is one row of the derived presence set: a known profile
// plus its current connectivity. Presence counts distinct user ids, never
// individual sessions.
type PresenceEntry struct {
	Profile
	Online bool
}
