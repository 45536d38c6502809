// Package projection builds local timelines from observed events. It
// handles ordering and deduplication; it never emits events itself.
package projection

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/domain/event"
)

// Timeline is an id-deduplicating, sequence-ordered view of observed
// messages. Delivery is at-least-once across reconnects: a replay may carry
// messages already seen live, and Consume absorbs the duplicates. The
// integration tests use Timeline as the reference client model; the server
// wires one as a permanent sink for a recent-activity view.
type Timeline struct {
	mu       sync.Mutex
	capacity int
	seen     map[uuid.UUID]struct{}
	messages []domain.Message
}

// NewTimeline keeps at most capacity messages; non-positive is unbounded.
func NewTimeline(capacity int) *Timeline {
	return &Timeline{
		capacity: capacity,
		seen:     make(map[uuid.UUID]struct{}),
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.SanitizedMessage:
		t.add(evt.Message)
	case event.GroupHistoryReplay:
		for _, m := range evt.Messages {
			t.add(m)
		}
	case event.DirectHistoryReplay:
		for _, m := range evt.Messages {
			t.add(m)
		}
	}
	return nil
}

func (t *Timeline) add(m domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[m.ID]; dup {
		return
	}
	t.seen[m.ID] = struct{}{}
	t.messages = append(t.messages, m)

	// Keep thread-local sequence order even when a replay arrives after
	// live messages; across threads the timestamp decides.
	sort.SliceStable(t.messages, func(i, j int) bool {
		a, b := t.messages[i], t.messages[j]
		if threadOf(a) == threadOf(b) {
			return a.Seq < b.Seq
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	if t.capacity > 0 && len(t.messages) > t.capacity {
		evicted := t.messages[0]
		delete(t.seen, evicted.ID)
		t.messages = t.messages[1:]
	}
}

func threadOf(m domain.Message) string {
	if m.Scope == domain.ScopeDirect {
		return string(domain.NewPairKey(m.SenderID, m.RecipientID))
	}
	return string(domain.ScopeGroup)
}

// Messages returns a copy of the current view, oldest first.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}
