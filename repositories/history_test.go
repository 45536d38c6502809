package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/T4snimul/owlery/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func draft(sender, recipient, text string) domain.Message {
	return domain.Message{
		ID:          uuid.New(),
		SenderID:    sender,
		SenderName:  sender,
		RecipientID: recipient,
		Text:        text,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestHistory_AppendGroup_Assigns_Consecutive_Sequences(t *testing.T) {
	req := require.New(t)
	repository, err := NewHistoryRepository(openTestDB(t), slog.Default())
	req.NoError(err)

	first, err := repository.AppendGroup(draft("2408001", "", "one"))
	req.NoError(err)
	second, err := repository.AppendGroup(draft("2408002", "", "two"))
	req.NoError(err)

	req.Equal(uint64(1), first.Seq)
	req.Equal(uint64(2), second.Seq)
	req.Equal(domain.ScopeGroup, first.Scope)
}

func TestHistory_GroupHistory_Returns_Ascending_Order(t *testing.T) {
	req := require.New(t)
	repository, err := NewHistoryRepository(openTestDB(t), slog.Default())
	req.NoError(err)

	texts := []string{"one", "two", "three"}
	for _, text := range texts {
		_, err = repository.AppendGroup(draft("2408001", "", text))
		req.NoError(err)
	}

	fetched, err := repository.GroupHistory(0)
	req.NoError(err)
	req.Len(fetched, len(texts))
	for i, m := range fetched {
		req.Equal(uint64(i+1), m.Seq)
		req.Equal(texts[i], m.Text)
	}
}

func TestHistory_GroupHistory_Limit_Keeps_Newest(t *testing.T) {
	req := require.New(t)
	repository, err := NewHistoryRepository(openTestDB(t), slog.Default())
	req.NoError(err)

	for _, text := range []string{"one", "two", "three", "four"} {
		_, err = repository.AppendGroup(draft("2408001", "", text))
		req.NoError(err)
	}

	// When the window is smaller than the log
	fetched, err := repository.GroupHistory(2)
	req.NoError(err)

	// Then the oldest messages fall off, order stays ascending
	req.Len(fetched, 2)
	req.Equal("three", fetched[0].Text)
	req.Equal("four", fetched[1].Text)
}

func TestHistory_AppendGroup_Roundtrips_All_Fields(t *testing.T) {
	req := require.New(t)
	repository, err := NewHistoryRepository(openTestDB(t), slog.Default())
	req.NoError(err)

	original := domain.Message{
		ID:           uuid.New(),
		SenderID:     "2408001",
		SenderName:   "Harry Potter",
		SenderAvatar: "avatars/harry.png",
		Text:         "expecto patronum",
		CreatedAt:    time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC),
	}
	persisted, err := repository.AppendGroup(original)
	req.NoError(err)

	fetched, err := repository.GroupHistory(0)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal(persisted, fetched[0])
	req.Equal("Harry Potter", fetched[0].SenderName)
	req.Equal("avatars/harry.png", fetched[0].SenderAvatar)
}

func TestHistory_Direct_Threads_Are_Isolated(t *testing.T) {
	req := require.New(t)
	repository, err := NewHistoryRepository(openTestDB(t), slog.Default())
	req.NoError(err)

	harryHermione := domain.NewPairKey("2408001", "2408002")
	harryRon := domain.NewPairKey("2408001", "2408003")

	_, err = repository.AppendDirect(harryHermione, draft("2408001", "2408002", "for hermione"))
	req.NoError(err)
	_, err = repository.AppendDirect(harryRon, draft("2408001", "2408003", "for ron"))
	req.NoError(err)

	// Then each thread sequences and stores independently
	first, err := repository.DirectHistory(harryHermione, 0)
	req.NoError(err)
	req.Len(first, 1)
	req.Equal("for hermione", first[0].Text)
	req.Equal(uint64(1), first[0].Seq)

	second, err := repository.DirectHistory(harryRon, 0)
	req.NoError(err)
	req.Len(second, 1)
	req.Equal(uint64(1), second[0].Seq)
}

func TestHistory_Direct_Thread_Interleaves_Both_Directions(t *testing.T) {
	req := require.New(t)
	repository, err := NewHistoryRepository(openTestDB(t), slog.Default())
	req.NoError(err)

	pair := domain.NewPairKey("2408002", "2408001")
	_, err = repository.AppendDirect(pair, draft("2408001", "2408002", "hi"))
	req.NoError(err)
	_, err = repository.AppendDirect(pair, draft("2408002", "2408001", "hello back"))
	req.NoError(err)

	// Then reading through either direction's key yields the same log
	fetched, err := repository.DirectHistory(domain.NewPairKey("2408001", "2408002"), 0)
	req.NoError(err)
	req.Len(fetched, 2)
	req.Equal("hi", fetched[0].Text)
	req.Equal("hello back", fetched[1].Text)
}

func TestHistory_Sequences_Survive_Reopen(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewHistoryRepository(db, slog.Default())
	req.NoError(err)
	_, err = repository.AppendGroup(draft("2408001", "", "before restart"))
	req.NoError(err)
	pair := domain.NewPairKey("2408001", "2408002")
	_, err = repository.AppendDirect(pair, draft("2408001", "2408002", "dm before restart"))
	req.NoError(err)

	// When a fresh repository opens over the same data
	reopened, err := NewHistoryRepository(db, slog.Default())
	req.NoError(err)

	// Then the counters continue instead of colliding
	groupMsg, err := reopened.AppendGroup(draft("2408002", "", "after restart"))
	req.NoError(err)
	req.Equal(uint64(2), groupMsg.Seq)

	directMsg, err := reopened.AppendDirect(pair, draft("2408002", "2408001", "dm after restart"))
	req.NoError(err)
	req.Equal(uint64(2), directMsg.Seq)
}

func TestHistory_Empty_Log_Reads_Empty(t *testing.T) {
	req := require.New(t)
	repository, err := NewHistoryRepository(openTestDB(t), slog.Default())
	req.NoError(err)

	fetched, err := repository.GroupHistory(50)
	req.NoError(err)
	req.Empty(fetched)

	fetched, err = repository.DirectHistory(domain.NewPairKey("a", "b"), 50)
	req.NoError(err)
	req.Empty(fetched)
}
