package repositories

import (
	"fmt"
	"sync"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/errors"
)

// InMemoryDirectoryRepository is the map-backed twin of DirectoryRepository.
type InMemoryDirectoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewInMemoryDirectoryRepository() *InMemoryDirectoryRepository {
	return &InMemoryDirectoryRepository{profiles: make(map[string]domain.Profile)}
}

func (d *InMemoryDirectoryRepository) Upsert(profile domain.Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[profile.ID] = profile
	return nil
}

func (d *InMemoryDirectoryRepository) Get(userID string) (domain.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profile, ok := d.profiles[userID]
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %s", errors.ErrUnknownRecipient, userID)
	}
	return profile, nil
}

func (d *InMemoryDirectoryRepository) Exists(userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.profiles[userID]
	return ok, nil
}
