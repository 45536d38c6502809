package runtime

import (
	"sync"

	"github.com/T4snimul/owlery/contract"
	"github.com/T4snimul/owlery/domain"
)

type Set map[string]struct{}

type sessionEntry struct {
	session domain.Session
	sink    contract.EventSink
}

// Registry is the connection registry: the single owner of live session
// state. It is constructed at startup and torn down with the process; no
// package-level singleton exists on purpose.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]sessionEntry // session id -> session + sink
	userSessions map[string]Set          // user id -> session ids
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:     make(map[string]sessionEntry),
		userSessions: make(map[string]Set),
	}
}

// Register adds a session under its user identity. It reports whether the
// user just came online, i.e. this is their first active session, so the
// caller can emit exactly one presence-added signal per user. A second
// device for an already-online user never reports first.
func (r *Registry) Register(session domain.Session, sink contract.EventSink) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = sessionEntry{session: session, sink: sink}

	ids, ok := r.userSessions[session.UserID]
	if !ok {
		ids = make(Set)
		r.userSessions[session.UserID] = ids
	}
	wasOnline := len(ids) > 0
	ids[session.ID] = struct{}{}
	return !wasOnline
}

// Unregister removes a session. It reports whether the user just went
// offline (their last session closed) so the caller can emit exactly one
// presence-removed signal. Unknown session ids return ok=false; duplicate
// disconnects are harmless.
func (r *Registry) Unregister(sessionID string) (session domain.Session, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.sessions[sessionID]
	if !exists {
		return domain.Session{}, false, false
	}
	delete(r.sessions, sessionID)

	if ids, found := r.userSessions[entry.session.UserID]; found {
		delete(ids, sessionID)
		if len(ids) == 0 {
			// No session left: the user is offline. Remove the entry so
			// the map does not grow with every identity ever seen.
			delete(r.userSessions, entry.session.UserID)
			last = true
		}
	}
	return entry.session, last, true
}

func (r *Registry) SessionsForUser(userID string) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []domain.Session
	for id := range r.userSessions[userID] {
		if entry, ok := r.sessions[id]; ok {
			sessions = append(sessions, entry.session)
		}
	}
	return sessions
}

func (r *Registry) SinkForSession(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return entry.sink, true
}

// SinksForUser resolves every live session of a user, covering multi-device
// fan-out of direct messages.
func (r *Registry) SinksForUser(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for id := range r.userSessions[userID] {
		if entry, ok := r.sessions[id]; ok {
			sinks = append(sinks, entry.sink)
		}
	}
	return sinks
}

func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, entry := range r.sessions {
		sinks = append(sinks, entry.sink)
	}
	return sinks
}

// OnlineUsers returns the distinct user ids with at least one active
// session. Its length is the presence set size, never the session count.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.userSessions))
	for userID := range r.userSessions {
		users = append(users, userID)
	}
	return users
}
