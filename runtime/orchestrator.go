package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/T4snimul/owlery/contract"
	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/domain/event"
	"github.com/T4snimul/owlery/errors"
	"github.com/T4snimul/owlery/moderation"
	"github.com/T4snimul/owlery/observability"
	"github.com/T4snimul/owlery/projection"
	"github.com/T4snimul/owlery/repositories"
	"github.com/T4snimul/owlery/runtime/workers"
)

// Options bounds the orchestrator's buffers and pipeline stages.
type Options struct {
	// BufferSize is the capacity of the shared event channel feeding fan-out.
	BufferSize int
	// ReplayLimit caps history replays; non-positive replays the full log.
	ReplayLimit int
	// MaxTextLength rejects oversized message text at validation time.
	MaxTextLength int
	// SinkTimeout bounds a single sink delivery during fan-out.
	SinkTimeout time.Duration
	// MetricInterval drives the health monitoring worker.
	MetricInterval time.Duration
	// MaskRune replaces censored characters.
	MaskRune rune
}

// Orchestrator owns the send pipeline: validate, moderate, persist
// (write-ahead), then fan out to live sessions. The send acknowledgment
// depends only on persistence; delivery is fire-and-forget.
type Orchestrator struct {
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   contract.IRegistry
	history    repositories.IHistoryRepository
	directory  repositories.IDirectoryRepository
	stats      *observability.StatsManager
	sanitizer  *Sanitizer
	events     chan event.DomainEvent
	opts       Options

	// sendMu holds append and broadcast enqueue together: once a message
	// gets its sequence number, its event enters the fan-out channel before
	// any later sequence can, so delivery order matches persisted order.
	sendMu sync.Mutex
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, history repositories.IHistoryRepository,
	directory repositories.IDirectoryRepository, stats *observability.StatsManager,
	opts Options) *Orchestrator {
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		history:    history,
		directory:  directory,
		stats:      stats,
		events:     make(chan event.DomainEvent, opts.BufferSize),
		opts:       opts,
	}
}

// Start loads the moderation blacklist, registers the supervised workers,
// and runs the supervisor in the background. It returns once the pipeline
// is accepting sends.
func (o *Orchestrator) Start(ctx context.Context) error {
	data, err := LoadCensoredWords()
	if err != nil {
		return fmt.Errorf("loading censored words: %w", err)
	}
	o.log.Info(fmt.Sprintf("%d censored words loaded [%s]",
		len(data.Words), strings.Join(data.Languages, ",")))

	moderator, err := moderation.NewModerator(data.Words, o.opts.MaskRune)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}
	o.sanitizer = NewSanitizer(moderator, o.log)

	fanout := workers.NewEventFanout(o.log, o.registry, o.events, o.opts.SinkTimeout).
		Add(projection.NewTimeline(o.opts.ReplayLimit))
	o.supervisor.Add(fanout)
	o.supervisor.Add(workers.NewHealthMonitoringWorker(o.log, o.stats, o.opts.MetricInterval))

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised workers and waits for them through the
// supervisor.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// JoinGroup admits a session to the Great Hall. The joining session alone
// receives the current presence snapshot and a bounded group replay; every
// session is notified only when the user actually came online (first
// session), so a second device never produces a duplicate presence entry.
// Re-joining with the same session id is idempotent and re-affirms
// membership by re-sending snapshot and replay.
func (o *Orchestrator) JoinGroup(ctx context.Context, session domain.Session,
	profile domain.Profile, sink contract.EventSink) error {
	if err := o.directory.Upsert(profile); err != nil {
		return fmt.Errorf("caching profile: %w", err)
	}

	first := o.registry.Register(session, sink)
	o.stats.SessionsOpened.Add(1)

	snapshot := event.PresenceChanged{Entries: o.presenceEntries()}
	if err := sink.Consume(ctx, snapshot); err != nil {
		o.log.Debug("Snapshot delivery refused", "session_id", session.ID, "error", err)
	}

	// The user is registered and announced before the replay read: a
	// storage failure must not leave an online user invisible to the room.
	if first {
		o.dispatch(snapshot)
	}

	messages, err := o.history.GroupHistory(o.opts.ReplayLimit)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrHistoryRead, err)
	}
	replay := event.GroupHistoryReplay{SessionID: session.ID, Messages: messages}
	if err := sink.Consume(ctx, replay); err != nil {
		o.log.Debug("Replay delivery refused", "session_id", session.ID, "error", err)
	}
	return nil
}

// Leave tears down a session. Unknown ids are ignored so duplicate
// disconnect notifications are harmless. Only the user's last session
// triggers a presence broadcast.
func (o *Orchestrator) Leave(sessionID string) {
	session, last, ok := o.registry.Unregister(sessionID)
	if !ok {
		return
	}
	o.stats.SessionsClosed.Add(1)
	o.log.Debug("Session left", "session_id", sessionID, "user_id", session.UserID)

	if last {
		o.dispatch(event.PresenceChanged{Entries: o.presenceEntries()})
	}
}

// PostGroupMessage runs the write-ahead pipeline for the global room. The
// returned error reflects validation or persistence only; broadcast is
// fire-and-forget and every currently registered session, the sender
// included, receives the message through fan-out.
func (o *Orchestrator) PostGroupMessage(ctx context.Context, cmd domain.PostGroupMessageCommand) error {
	if err := o.checkText(cmd.Text); err != nil {
		return err
	}

	message := o.sanitizer.Sanitize(domain.Message{
		ID:           uuid.New(),
		Scope:        domain.ScopeGroup,
		SenderID:     cmd.SenderID,
		SenderName:   cmd.SenderName,
		SenderAvatar: cmd.SenderAvatar,
		Text:         cmd.Text,
		CreatedAt:    stampOf(cmd.CreatedAt),
	})

	o.sendMu.Lock()
	defer o.sendMu.Unlock()

	persisted, err := o.history.AppendGroup(message)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrAppendFailed, err)
	}
	o.stats.GroupMessages.Add(1)

	o.dispatch(event.SanitizedMessage{Message: persisted})
	return nil
}

// PostDirectMessage appends to the pair's canonical log and fans out to
// every active session of both participants. A recipient with zero sessions
// still gets the append; they catch up through history replay later
// (store-and-forward).
func (o *Orchestrator) PostDirectMessage(ctx context.Context, cmd domain.PostDirectMessageCommand) error {
	if err := o.checkText(cmd.Text); err != nil {
		return err
	}
	if cmd.RecipientID == cmd.SenderID {
		return errors.ErrSelfMessage
	}
	known, err := o.directory.Exists(cmd.RecipientID)
	if err != nil {
		return fmt.Errorf("resolving recipient: %w", err)
	}
	if !known {
		return fmt.Errorf("%w: %s", errors.ErrUnknownRecipient, cmd.RecipientID)
	}

	message := o.sanitizer.Sanitize(domain.Message{
		ID:           uuid.New(),
		Scope:        domain.ScopeDirect,
		SenderID:     cmd.SenderID,
		SenderName:   cmd.SenderName,
		SenderAvatar: cmd.SenderAvatar,
		RecipientID:  cmd.RecipientID,
		Text:         cmd.Text,
		CreatedAt:    stampOf(cmd.CreatedAt),
	})

	o.sendMu.Lock()
	defer o.sendMu.Unlock()

	persisted, err := o.history.AppendDirect(cmd.Pair(), message)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrAppendFailed, err)
	}
	o.stats.DirectMessages.Add(1)

	o.dispatch(event.SanitizedMessage{Message: persisted})
	return nil
}

// ReplayDirectHistory sends the bounded replay of one pairwise thread to a
// single requesting session. The thread is identical whichever participant
// asks: the pair key is canonical.
func (o *Orchestrator) ReplayDirectHistory(ctx context.Context, sessionID, userID, withUserID string) error {
	sink, ok := o.registry.SinkForSession(sessionID)
	if !ok {
		return errors.ErrUnknownSession
	}

	pair := domain.NewPairKey(userID, withUserID)
	messages, err := o.history.DirectHistory(pair, o.opts.ReplayLimit)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrHistoryRead, err)
	}

	replay := event.DirectHistoryReplay{SessionID: sessionID, With: withUserID, Messages: messages}
	if err := sink.Consume(ctx, replay); err != nil {
		o.log.Debug("Replay delivery refused", "session_id", sessionID, "error", err)
	}
	return nil
}

// dispatch hands an event to the fan-out channel. A full channel gets up to
// SinkTimeout to drain before live delivery is dropped; persisted messages
// remain recoverable via replay either way.
func (o *Orchestrator) dispatch(evt event.DomainEvent) {
	select {
	case o.events <- evt:
		return
	default:
	}

	timer := time.NewTimer(o.opts.SinkTimeout)
	defer timer.Stop()
	select {
	case o.events <- evt:
	case <-timer.C:
		o.stats.QueueDrops.Add(1)
		o.log.Warn("Event pipeline stalled, dropping live delivery")
	}
}

// presenceEntries derives the presence set: distinct online user ids
// resolved to directory profiles, sorted for stable payloads.
func (o *Orchestrator) presenceEntries() []domain.PresenceEntry {
	users := o.registry.OnlineUsers()
	sort.Strings(users)

	entries := make([]domain.PresenceEntry, 0, len(users))
	for _, userID := range users {
		profile, err := o.directory.Get(userID)
		if err != nil {
			// A session can outlive a directory wipe; presence still
			// reports the id.
			profile = domain.Profile{ID: userID}
		}
		entries = append(entries, domain.PresenceEntry{Profile: profile, Online: true})
	}
	return entries
}

func (o *Orchestrator) checkText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return errors.ErrEmptyText
	}
	if o.opts.MaxTextLength > 0 && len(trimmed) > o.opts.MaxTextLength {
		return errors.ErrTextTooLong
	}
	return nil
}

func stampOf(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}
