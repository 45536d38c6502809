package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/T4snimul/owlery/contract"
	"github.com/T4snimul/owlery/domain/event"
)

// EventFanout delivers domain events to session sinks and permanent
// in-process sinks (projections, stats).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// retries, or durability. Persistence has already happened upstream; a sink
// that cannot keep up loses live delivery only and recovers via history
// replay on reconnect. EventFanout is not a message broker.
type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	events      chan event.DomainEvent
	permanent   []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	events chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		registry:    registry,
		events:      events,
		sinkTimeout: sinkTimeout,
	}
}

// Add appends permanent sinks that observe every event regardless of its
// recipient list.
func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.permanent = append(w.permanent, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel closed")
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout resolves the event's audience at delivery time and consumes each
// sink under a bounded deadline. A slow sink only costs its own deadline,
// never blocks another session, and its error is logged, not propagated:
// from the sender's point of view the send already succeeded.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.resolve(evt)
	for _, sink := range append(sinks, w.permanent...) {
		deliveryCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(deliveryCtx, evt); err != nil {
			w.log.Debug("Sink refused event", "error", err)
		}
		cancel()
	}
}

func (w *EventFanout) resolve(evt event.DomainEvent) []contract.EventSink {
	recipients := evt.Recipients()
	if recipients == nil {
		return w.registry.AllSinks()
	}
	var sinks []contract.EventSink
	for _, userID := range recipients {
		sinks = append(sinks, w.registry.SinksForUser(userID)...)
	}
	return sinks
}
