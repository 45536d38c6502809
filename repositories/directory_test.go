package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/errors"
)

func TestDirectory_Upsert_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewDirectoryRepository(openTestDB(t))

	profile := domain.Profile{
		ID:     "2408001",
		Name:   "Harry Potter",
		Roll:   "2408001",
		Avatar: "avatars/harry.png",
	}
	req.NoError(repository.Upsert(profile))

	fetched, err := repository.Get("2408001")
	req.NoError(err)
	req.Equal(profile, fetched)
}

func TestDirectory_Upsert_Overwrites_Previous_Profile(t *testing.T) {
	req := require.New(t)
	repository := NewDirectoryRepository(openTestDB(t))

	req.NoError(repository.Upsert(domain.Profile{ID: "2408001", Name: "Harry"}))
	req.NoError(repository.Upsert(domain.Profile{ID: "2408001", Name: "Harry Potter"}))

	fetched, err := repository.Get("2408001")
	req.NoError(err)
	req.Equal("Harry Potter", fetched.Name)
}

func TestDirectory_Get_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := NewDirectoryRepository(openTestDB(t))

	_, err := repository.Get("nobody")
	req.ErrorIs(err, errors.ErrUnknownRecipient)
}

func TestDirectory_Exists(t *testing.T) {
	req := require.New(t)
	repository := NewDirectoryRepository(openTestDB(t))

	known, err := repository.Exists("2408001")
	req.NoError(err)
	req.False(known)

	req.NoError(repository.Upsert(domain.Profile{ID: "2408001", Name: "Harry"}))

	known, err = repository.Exists("2408001")
	req.NoError(err)
	req.True(known)
}
