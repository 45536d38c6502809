package repositories

import (
	"sync"

	"github.com/T4snimul/owlery/domain"
)

// InMemoryHistoryRepository backs the log with plain slices. It honors the
// same per-scope total order contract as the Badger implementation and is
// used by unit tests and embedded runs without a data directory.
type InMemoryHistoryRepository struct {
	mu    sync.Mutex
	group []domain.Message
	pairs map[domain.PairKey][]domain.Message
}

func NewInMemoryHistoryRepository() *InMemoryHistoryRepository {
	return &InMemoryHistoryRepository{
		pairs: make(map[domain.PairKey][]domain.Message),
	}
}

func (r *InMemoryHistoryRepository) AppendGroup(message domain.Message) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.Seq = uint64(len(r.group)) + 1
	message.Scope = domain.ScopeGroup
	r.group = append(r.group, message)
	return message, nil
}

func (r *InMemoryHistoryRepository) AppendDirect(pair domain.PairKey, message domain.Message) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.Seq = uint64(len(r.pairs[pair])) + 1
	message.Scope = domain.ScopeDirect
	r.pairs[pair] = append(r.pairs[pair], message)
	return message, nil
}

func (r *InMemoryHistoryRepository) GroupHistory(limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return window(r.group, limit), nil
}

func (r *InMemoryHistoryRepository) DirectHistory(pair domain.PairKey, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return window(r.pairs[pair], limit), nil
}

// window copies the most recent limit messages, oldest first. A non-positive
// limit returns the whole log.
func window(log []domain.Message, limit int) []domain.Message {
	start := 0
	if limit > 0 && len(log) > limit {
		start = len(log) - limit
	}
	out := make([]domain.Message, len(log)-start)
	copy(out, log[start:])
	return out
}
