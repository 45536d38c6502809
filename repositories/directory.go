//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/errors"
)

// IDirectoryRepository caches the display identities the upstream directory
// service has vouched for. The chat core consults it to render presence
// entries and to validate that a direct-message recipient is a known
// identity, online or not.
type IDirectoryRepository interface {
	Upsert(profile domain.Profile) error
	Get(userID string) (domain.Profile, error)
	Exists(userID string) (bool, error)
}

const profilePrefix = "profile:"

type DirectoryRepository struct {
	db *badger.DB
}

func NewDirectoryRepository(db *badger.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

type diskProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Roll   string `json:"roll,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Upsert stores the profile under "profile:{user_id}". Joins refresh the
// cached name/avatar, so the latest authenticated claim wins.
func (d *DirectoryRepository) Upsert(profile domain.Profile) error {
	bytes, err := json.Marshal(diskProfile{
		ID:     profile.ID,
		Name:   profile.Name,
		Roll:   profile.Roll,
		Avatar: profile.Avatar,
	})
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profilePrefix+profile.ID), bytes)
	})
}

func (d *DirectoryRepository) Get(userID string) (domain.Profile, error) {
	var stored diskProfile
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profilePrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Profile{}, fmt.Errorf("%w: %s", errors.ErrUnknownRecipient, userID)
		}
		return domain.Profile{}, err
	}
	return domain.Profile{
		ID:     stored.ID,
		Name:   stored.Name,
		Roll:   stored.Roll,
		Avatar: stored.Avatar,
	}, nil
}

func (d *DirectoryRepository) Exists(userID string) (bool, error) {
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(profilePrefix + userID))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
