//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker lifecycle
// events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one consumer of delivered events. Session sinks wrap a
// bounded channel drained by the connection's write pump; projection and
// storage sinks consume in-process.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks active sessions per user identity and derives the
// presence set. All methods are safe for concurrent use.
type IRegistry interface {
	// Register adds a session. first is true when this is the user's first
	// active session, i.e. the user just came online.
	Register(session domain.Session, sink EventSink) (first bool)
	// Unregister removes a session. last is true when it was the user's
	// final active session, i.e. the user just went offline. ok is false
	// when the session id is unknown (duplicate disconnects are harmless).
	Unregister(sessionID string) (session domain.Session, last bool, ok bool)
	SessionsForUser(userID string) []domain.Session
	SinkForSession(sessionID string) (EventSink, bool)
	SinksForUser(userID string) []EventSink
	AllSinks() []EventSink
	// OnlineUsers returns the distinct user ids with at least one session.
	OnlineUsers() []string
}

type IOrchestrator interface {
	JoinGroup(ctx context.Context, session domain.Session, profile domain.Profile, sink EventSink) error
	Leave(sessionID string)
	PostGroupMessage(ctx context.Context, cmd domain.PostGroupMessageCommand) error
	PostDirectMessage(ctx context.Context, cmd domain.PostDirectMessageCommand) error
	ReplayDirectHistory(ctx context.Context, sessionID, userID, withUserID string) error
	Start(ctx context.Context) error
	Stop()
}
