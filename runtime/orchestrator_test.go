package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/domain/event"
	"github.com/T4snimul/owlery/errors"
	"github.com/T4snimul/owlery/mocks"
	"github.com/T4snimul/owlery/observability"
	"github.com/T4snimul/owlery/repositories"
	"github.com/T4snimul/owlery/runtime/workers"
)

// captureSink records everything delivered to it so tests can assert on the
// asynchronous fan-out output.
type captureSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *captureSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, e := range s.events {
		if m, ok := e.(event.SanitizedMessage); ok {
			out = append(out, m.Message)
		}
	}
	return out
}

func (s *captureSink) presenceBroadcasts() []event.PresenceChanged {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.PresenceChanged
	for _, e := range s.events {
		if p, ok := e.(event.PresenceChanged); ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *captureSink) groupReplays() []event.GroupHistoryReplay {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.GroupHistoryReplay
	for _, e := range s.events {
		if r, ok := e.(event.GroupHistoryReplay); ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *captureSink) directReplays() []event.DirectHistoryReplay {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.DirectHistoryReplay
	for _, e := range s.events {
		if r, ok := e.(event.DirectHistoryReplay); ok {
			out = append(out, r)
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startOrchestrator(t *testing.T, history repositories.IHistoryRepository) *Orchestrator {
	t.Helper()
	log := testLogger()
	o := NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond),
		NewRegistry(), history, repositories.NewInMemoryDirectoryRepository(),
		observability.NewStatsManager(log), Options{
			BufferSize:     64,
			ReplayLimit:    50,
			MaxTextLength:  2000,
			SinkTimeout:    time.Second,
			MetricInterval: time.Hour,
			MaskRune:       '*',
		})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, o.Start(ctx))
	t.Cleanup(func() {
		o.Stop()
		cancel()
	})
	return o
}

func join(t *testing.T, o *Orchestrator, userID, name string) (*captureSink, string) {
	t.Helper()
	sink := &captureSink{}
	sessionID := uuid.NewString()
	err := o.JoinGroup(context.Background(),
		domain.Session{ID: sessionID, UserID: userID, DisplayName: name},
		domain.Profile{ID: userID, Name: name, Roll: userID},
		sink)
	require.NoError(t, err)
	return sink, sessionID
}

func TestOrchestrator_JoinGroup_Delivers_Snapshot_And_Replay_To_Joiner(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())

	// When a user joins the group room
	sink, _ := join(t, o, "2408001", "Harry Potter")

	// Then the joining session got the presence snapshot and group replay
	snapshots := sink.presenceBroadcasts()
	req.NotEmpty(snapshots)
	req.Len(snapshots[0].Entries, 1)
	req.Equal("2408001", snapshots[0].Entries[0].ID)
	req.True(snapshots[0].Entries[0].Online)

	replays := sink.groupReplays()
	req.Len(replays, 1)
	req.Empty(replays[0].Messages)
}

func TestOrchestrator_Join_Broadcasts_Presence_To_Everyone(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	first, _ := join(t, o, "2408001", "Harry Potter")

	// When a second user comes online
	join(t, o, "2408002", "Hermione Granger")

	// Then the earlier session observes the grown presence set
	req.Eventually(func() bool {
		broadcasts := first.presenceBroadcasts()
		return len(broadcasts) > 0 && len(broadcasts[len(broadcasts)-1].Entries) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestOrchestrator_Second_Device_Does_Not_Rebroadcast_Presence(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	observer, _ := join(t, o, "2408001", "Harry Potter")
	join(t, o, "2408002", "Hermione Granger")

	req.Eventually(func() bool {
		return len(observer.presenceBroadcasts()) >= 2
	}, time.Second, 10*time.Millisecond)
	before := len(observer.presenceBroadcasts())

	// When the same user joins again from a second device
	join(t, o, "2408002", "Hermione Granger")

	// Then no further presence broadcast reaches the observer
	time.Sleep(100 * time.Millisecond)
	req.Len(observer.presenceBroadcasts(), before)
}

func TestOrchestrator_PostGroupMessage_Reaches_Everyone_Including_Sender(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	harry, _ := join(t, o, "2408001", "Harry Potter")
	hermione, _ := join(t, o, "2408002", "Hermione Granger")

	// When Harry posts to the group room
	err := o.PostGroupMessage(context.Background(), domain.PostGroupMessageCommand{
		SenderID:   "2408001",
		SenderName: "Harry Potter",
		Text:       "has anyone seen Hedwig?",
	})
	req.NoError(err)

	// Then both sessions receive the sequenced message
	for _, sink := range []*captureSink{harry, hermione} {
		req.Eventually(func() bool {
			return len(sink.messages()) == 1
		}, time.Second, 10*time.Millisecond)
		m := sink.messages()[0]
		req.Equal(uint64(1), m.Seq)
		req.Equal(domain.ScopeGroup, m.Scope)
		req.Equal("has anyone seen Hedwig?", m.Text)
	}
}

func TestOrchestrator_PostGroupMessage_Preserves_Send_Order(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	sink, _ := join(t, o, "2408001", "Harry Potter")

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		req.NoError(o.PostGroupMessage(context.Background(), domain.PostGroupMessageCommand{
			SenderID: "2408001", SenderName: "Harry Potter", Text: text,
		}))
	}

	req.Eventually(func() bool {
		return len(sink.messages()) == len(texts)
	}, time.Second, 10*time.Millisecond)
	for i, m := range sink.messages() {
		req.Equal(uint64(i+1), m.Seq)
		req.Equal(texts[i], m.Text)
	}
}

func TestOrchestrator_Persistence_Failure_Aborts_Broadcast(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	history := mocks.NewMockIHistoryRepository(ctrl)
	history.EXPECT().GroupHistory(gomock.Any()).Return(nil, nil).AnyTimes()
	history.EXPECT().AppendGroup(gomock.Any()).Return(domain.Message{}, errors.ErrHistoryRead)

	o := startOrchestrator(t, history)
	sink, _ := join(t, o, "2408001", "Harry Potter")

	// When the append fails
	err := o.PostGroupMessage(context.Background(), domain.PostGroupMessageCommand{
		SenderID: "2408001", SenderName: "Harry Potter", Text: "lost forever",
	})

	// Then the sender sees the failure and nobody receives the message
	req.ErrorIs(err, errors.ErrAppendFailed)
	time.Sleep(100 * time.Millisecond)
	req.Empty(sink.messages())
}

func TestOrchestrator_PostGroupMessage_Rejects_Blank_And_Oversized_Text(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())

	err := o.PostGroupMessage(context.Background(), domain.PostGroupMessageCommand{
		SenderID: "2408001", SenderName: "Harry Potter", Text: "   ",
	})
	req.ErrorIs(err, errors.ErrEmptyText)

	huge := make([]byte, 2001)
	for i := range huge {
		huge[i] = 'a'
	}
	err = o.PostGroupMessage(context.Background(), domain.PostGroupMessageCommand{
		SenderID: "2408001", SenderName: "Harry Potter", Text: string(huge),
	})
	req.ErrorIs(err, errors.ErrTextTooLong)
}

func TestOrchestrator_DirectMessage_Reaches_Both_Participants_Only(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	harry, _ := join(t, o, "2408001", "Harry Potter")
	hermione, _ := join(t, o, "2408002", "Hermione Granger")
	ron, _ := join(t, o, "2408003", "Ron Weasley")

	// When Harry messages Hermione directly
	err := o.PostDirectMessage(context.Background(), domain.PostDirectMessageCommand{
		SenderID: "2408001", SenderName: "Harry Potter",
		RecipientID: "2408002", Text: "library after class?",
	})
	req.NoError(err)

	// Then sender and recipient both receive it, the bystander does not
	for _, sink := range []*captureSink{harry, hermione} {
		req.Eventually(func() bool {
			return len(sink.messages()) == 1
		}, time.Second, 10*time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	req.Empty(ron.messages())
}

func TestOrchestrator_DirectMessage_Fans_Out_To_Every_Recipient_Device(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	join(t, o, "2408001", "Harry Potter")
	laptop, _ := join(t, o, "2408002", "Hermione Granger")
	phone, _ := join(t, o, "2408002", "Hermione Granger")

	err := o.PostDirectMessage(context.Background(), domain.PostDirectMessageCommand{
		SenderID: "2408001", SenderName: "Harry Potter",
		RecipientID: "2408002", Text: "both devices should see this",
	})
	req.NoError(err)

	for _, sink := range []*captureSink{laptop, phone} {
		req.Eventually(func() bool {
			return len(sink.messages()) == 1
		}, time.Second, 10*time.Millisecond)
	}
}

func TestOrchestrator_DirectMessage_To_Offline_Recipient_Is_Stored(t *testing.T) {
	req := require.New(t)
	history := repositories.NewInMemoryHistoryRepository()
	o := startOrchestrator(t, history)
	join(t, o, "2408001", "Harry Potter")

	// Given the recipient was seen once but is offline now
	_, hermioneSession := join(t, o, "2408002", "Hermione Granger")
	o.Leave(hermioneSession)

	// When Harry writes to the offline Hermione
	err := o.PostDirectMessage(context.Background(), domain.PostDirectMessageCommand{
		SenderID: "2408001", SenderName: "Harry Potter",
		RecipientID: "2408002", Text: "read this when you are back",
	})
	req.NoError(err)

	// Then the thread holds the message for the next replay
	pair := domain.NewPairKey("2408001", "2408002")
	stored, err := history.DirectHistory(pair, 0)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("read this when you are back", stored[0].Text)
}

func TestOrchestrator_DirectMessage_Rejects_Self_And_Unknown_Recipient(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	join(t, o, "2408001", "Harry Potter")

	err := o.PostDirectMessage(context.Background(), domain.PostDirectMessageCommand{
		SenderID: "2408001", RecipientID: "2408001", Text: "note to self",
	})
	req.ErrorIs(err, errors.ErrSelfMessage)

	err = o.PostDirectMessage(context.Background(), domain.PostDirectMessageCommand{
		SenderID: "2408001", RecipientID: "never-seen", Text: "hello?",
	})
	req.ErrorIs(err, errors.ErrUnknownRecipient)
}

func TestOrchestrator_ReplayDirectHistory_Is_Pair_Symmetric(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	harry, harrySession := join(t, o, "2408001", "Harry Potter")
	hermione, hermioneSession := join(t, o, "2408002", "Hermione Granger")

	req.NoError(o.PostDirectMessage(context.Background(), domain.PostDirectMessageCommand{
		SenderID: "2408001", RecipientID: "2408002", Text: "one",
	}))
	req.NoError(o.PostDirectMessage(context.Background(), domain.PostDirectMessageCommand{
		SenderID: "2408002", RecipientID: "2408001", Text: "two",
	}))

	// When each participant requests the thread
	req.NoError(o.ReplayDirectHistory(context.Background(), harrySession, "2408001", "2408002"))
	req.NoError(o.ReplayDirectHistory(context.Background(), hermioneSession, "2408002", "2408001"))

	// Then both see the identical interleaved log
	for _, sink := range []*captureSink{harry, hermione} {
		replays := sink.directReplays()
		req.Len(replays, 1)
		req.Len(replays[0].Messages, 2)
		req.Equal("one", replays[0].Messages[0].Text)
		req.Equal("two", replays[0].Messages[1].Text)
		req.Equal(uint64(1), replays[0].Messages[0].Seq)
		req.Equal(uint64(2), replays[0].Messages[1].Seq)
	}
}

func TestOrchestrator_ReplayDirectHistory_Unknown_Session(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())

	err := o.ReplayDirectHistory(context.Background(), uuid.NewString(), "2408001", "2408002")
	req.ErrorIs(err, errors.ErrUnknownSession)
}

func TestOrchestrator_Leave_Last_Session_Broadcasts_Shrunk_Presence(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	observer, _ := join(t, o, "2408001", "Harry Potter")
	_, hermioneSession := join(t, o, "2408002", "Hermione Granger")

	req.Eventually(func() bool {
		broadcasts := observer.presenceBroadcasts()
		return len(broadcasts) > 0 && len(broadcasts[len(broadcasts)-1].Entries) == 2
	}, time.Second, 10*time.Millisecond)

	// When Hermione's only session leaves
	o.Leave(hermioneSession)

	// Then the remaining session observes her disappear
	req.Eventually(func() bool {
		broadcasts := observer.presenceBroadcasts()
		last := broadcasts[len(broadcasts)-1]
		return len(last.Entries) == 1 && last.Entries[0].ID == "2408001"
	}, time.Second, 10*time.Millisecond)
}

func TestOrchestrator_Group_Message_Text_Is_Moderated_Before_Persistence(t *testing.T) {
	req := require.New(t)
	history := repositories.NewInMemoryHistoryRepository()
	o := startOrchestrator(t, history)
	join(t, o, "2408001", "Harry Potter")

	err := o.PostGroupMessage(context.Background(), domain.PostGroupMessageCommand{
		SenderID: "2408001", SenderName: "Harry Potter", Text: "that exam was bollocks",
	})
	req.NoError(err)

	// Then the stored log never contains the unmasked word
	stored, err := history.GroupHistory(0)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("that exam was ********", stored[0].Text)
}

func TestOrchestrator_Concurrent_Senders_Are_Delivered_In_Sequence_Order(t *testing.T) {
	req := require.New(t)
	o := startOrchestrator(t, repositories.NewInMemoryHistoryRepository())
	sink, _ := join(t, o, "2408001", "Harry Potter")

	// When many goroutines race to post at once
	const senders = 16
	errs := make(chan error, senders)
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- o.PostGroupMessage(context.Background(), domain.PostGroupMessageCommand{
				SenderID: "2408001", SenderName: "Harry Potter", Text: "racing",
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then delivery order matches the assigned sequence numbers exactly
	req.Eventually(func() bool {
		return len(sink.messages()) == senders
	}, time.Second, 10*time.Millisecond)
	for i, m := range sink.messages() {
		req.Equal(uint64(i+1), m.Seq)
	}
}

func TestOrchestrator_Dispatch_Waits_For_Stalled_Pipeline_Before_Dropping(t *testing.T) {
	req := require.New(t)
	log := testLogger()
	stats := observability.NewStatsManager(log)
	o := NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond),
		NewRegistry(), repositories.NewInMemoryHistoryRepository(),
		repositories.NewInMemoryDirectoryRepository(), stats, Options{
			BufferSize:  1,
			SinkTimeout: 50 * time.Millisecond,
		})

	// Given a full fan-out channel with nothing draining it
	o.dispatch(event.PresenceChanged{})

	// When another event arrives
	started := time.Now()
	o.dispatch(event.PresenceChanged{})

	// Then the send held on for the grace period before giving up
	req.GreaterOrEqual(time.Since(started), 50*time.Millisecond)
	req.Equal(uint64(1), stats.QueueDrops.Load())
}

func TestOrchestrator_Join_Broadcasts_Presence_Even_When_Replay_Read_Fails(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	history := mocks.NewMockIHistoryRepository(ctrl)
	// The observer's join reads history fine; the second join hits a
	// storage failure.
	history.EXPECT().GroupHistory(gomock.Any()).Return(nil, nil)
	history.EXPECT().GroupHistory(gomock.Any()).Return(nil, errors.ErrHistoryRead)

	o := startOrchestrator(t, history)
	observer, _ := join(t, o, "2408001", "Harry Potter")

	// When a new user joins and the replay read fails
	err := o.JoinGroup(context.Background(),
		domain.Session{ID: uuid.NewString(), UserID: "2408002", DisplayName: "Hermione Granger"},
		domain.Profile{ID: "2408002", Name: "Hermione Granger", Roll: "2408002"},
		&captureSink{})
	req.ErrorIs(err, errors.ErrHistoryRead)

	// Then the room still learns the user is online
	req.Eventually(func() bool {
		broadcasts := observer.presenceBroadcasts()
		return len(broadcasts) > 0 && len(broadcasts[len(broadcasts)-1].Entries) == 2
	}, time.Second, 10*time.Millisecond)
}
