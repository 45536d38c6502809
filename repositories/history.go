//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=../mocks/mock_history_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/T4snimul/owlery/domain"
)

// IHistoryRepository is the append-only, ordered message log. Append is the
// sole mutation and the linearization point of a send: the sequence number is
// assigned under the per-scope lock, so reads observe one total order per
// scope even under concurrent writers. Order across scopes is unrelated.
type IHistoryRepository interface {
	AppendGroup(message domain.Message) (domain.Message, error)
	AppendDirect(pair domain.PairKey, message domain.Message) (domain.Message, error)
	GroupHistory(limit int) ([]domain.Message, error)
	DirectHistory(pair domain.PairKey, limit int) ([]domain.Message, error)
}

const (
	groupPrefix  = "msg:group:"
	directPrefix = "msg:dm:"
)

type HistoryRepository struct {
	db  *badger.DB
	log *slog.Logger

	mu       sync.Mutex
	groupSeq uint64
	pairSeq  map[domain.PairKey]uint64
}

// NewHistoryRepository opens the log over an existing Badger handle and
// recovers the group sequence counter from the highest persisted key.
// Pair counters are recovered lazily on first append to each pair.
func NewHistoryRepository(db *badger.DB, log *slog.Logger) (*HistoryRepository, error) {
	r := &HistoryRepository{
		db:      db,
		log:     log,
		pairSeq: make(map[domain.PairKey]uint64),
	}
	seq, err := r.lastSeq(groupPrefix)
	if err != nil {
		return nil, fmt.Errorf("recovering group sequence: %w", err)
	}
	r.groupSeq = seq
	return r, nil
}

// diskMessage is the stored representation. The padded sequence lives in the
// key; the record keeps it too so a row is self-describing for the inspector.
type diskMessage struct {
	ID           string    `json:"id"`
	Seq          uint64    `json:"seq"`
	Scope        string    `json:"scope"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar,omitempty"`
	RecipientID  string    `json:"recipient_id,omitempty"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

// AppendGroup assigns the next group sequence number and persists the
// message. The key is "msg:group:{seq_padded}"; 20-digit zero padding keeps
// lexicographic key order identical to sequence order.
func (r *HistoryRepository) AppendGroup(message domain.Message) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.Seq = r.groupSeq + 1
	message.Scope = domain.ScopeGroup
	key := fmt.Sprintf("%s%020d", groupPrefix, message.Seq)

	if err := r.store(key, message); err != nil {
		return domain.Message{}, err
	}
	r.groupSeq = message.Seq
	return message, nil
}

// AppendDirect assigns the next sequence number of the pair's canonical log
// and persists the message under "msg:dm:{pair}:{seq_padded}".
func (r *HistoryRepository) AppendDirect(pair domain.PairKey, message domain.Message) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq, ok := r.pairSeq[pair]
	if !ok {
		recovered, err := r.lastSeq(pairPrefix(pair))
		if err != nil {
			return domain.Message{}, fmt.Errorf("recovering pair sequence: %w", err)
		}
		seq = recovered
	}

	message.Seq = seq + 1
	message.Scope = domain.ScopeDirect
	key := fmt.Sprintf("%s%020d", pairPrefix(pair), message.Seq)

	if err := r.store(key, message); err != nil {
		return domain.Message{}, err
	}
	r.pairSeq[pair] = message.Seq
	return message, nil
}

func (r *HistoryRepository) store(key string, message domain.Message) error {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GroupHistory returns the most recent limit messages in ascending sequence
// order. A non-positive limit returns the full log.
func (r *HistoryRepository) GroupHistory(limit int) ([]domain.Message, error) {
	return r.scan(groupPrefix, limit)
}

// DirectHistory returns the most recent limit messages of the pair's
// canonical log in ascending sequence order.
func (r *HistoryRepository) DirectHistory(pair domain.PairKey, limit int) ([]domain.Message, error) {
	return r.scan(pairPrefix(pair), limit)
}

// scan walks the prefix in reverse so the limit cuts off the oldest
// messages, then flips the batch back to ascending order.
func (r *HistoryRepository) scan(prefix string, limit int) ([]domain.Message, error) {
	var rows [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefixBytes := []byte(prefix)
		// Seek past every possible key under the prefix, then walk back.
		seekKey := append([]byte(prefix), []byte("99999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefixBytes); it.Next() {
			if limit > 0 && len(rows) == limit {
				r.log.Debug(fmt.Sprintf("History window of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				row := make([]byte, len(value))
				copy(row, value)
				rows = append(rows, row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		var stored diskMessage
		if err = json.Unmarshal(rows[i], &stored); err != nil {
			return nil, err
		}
		message, err := toMessage(stored)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// lastSeq finds the highest sequence number persisted under a prefix, or 0
// when the log is empty.
func (r *HistoryRepository) lastSeq(prefix string) (uint64, error) {
	var seq uint64
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefixBytes := []byte(prefix)
		seekKey := append([]byte(prefix), []byte("99999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefixBytes) {
			return nil
		}
		return it.Item().Value(func(value []byte) error {
			var stored diskMessage
			if err := json.Unmarshal(value, &stored); err != nil {
				return err
			}
			seq = stored.Seq
			return nil
		})
	})
	return seq, err
}

func pairPrefix(pair domain.PairKey) string {
	return fmt.Sprintf("%s%s:", directPrefix, pair)
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:           message.ID.String(),
		Seq:          message.Seq,
		Scope:        string(message.Scope),
		SenderID:     message.SenderID,
		SenderName:   message.SenderName,
		SenderAvatar: message.SenderAvatar,
		RecipientID:  message.RecipientID,
		Text:         message.Text,
		CreatedAt:    message.CreatedAt.UTC(),
	}
}

func toMessage(stored diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(stored.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:           parsedID,
		Seq:          stored.Seq,
		Scope:        domain.Scope(stored.Scope),
		SenderID:     stored.SenderID,
		SenderName:   stored.SenderName,
		SenderAvatar: stored.SenderAvatar,
		RecipientID:  stored.RecipientID,
		Text:         stored.Text,
		CreatedAt:    stored.CreatedAt.UTC(),
	}, nil
}
