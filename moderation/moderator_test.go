package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T, words ...string) Moderator {
	t.Helper()
	m, err := NewModerator(words, '*')
	require.NoError(t, err)
	return m
}

func TestModerator_Censor_Masks_Blacklisted_Word(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t, "bollocks")

	// When a message contains a blacklisted word
	masked, found := moderator.Censor("that is utter bollocks mate")

	// Then the word is masked and reported
	req.Equal("that is utter ******** mate", masked)
	req.Equal([]string{"bollocks"}, found)
}

func TestModerator_Censor_Clean_Text_Unchanged(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t, "bollocks")

	masked, found := moderator.Censor("perfectly polite sentence")

	req.Equal("perfectly polite sentence", masked)
	req.Empty(found)
}

func TestModerator_Censor_Defeats_Leet_Substitution(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t, "bollocks")

	// When the word hides behind digit substitutions
	masked, found := moderator.Censor("b0ll0cks")

	// Then the original runes are masked all the same
	req.Equal("********", masked)
	req.Len(found, 1)
}

func TestModerator_Censor_Defeats_Spacing_And_Punctuation(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t, "git")

	masked, found := moderator.Censor("you g.i.t you")

	req.Len(found, 1)
	req.NotContains(masked, "g.i.t")
}

func TestModerator_Censor_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t, "prat")

	masked, found := moderator.Censor("PRAT")

	req.Equal("****", masked)
	req.Len(found, 1)
}

func TestModerator_Censor_Preserves_Surrounding_Layout(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t, "wally")

	masked, _ := moderator.Censor("oi wally, pass the salt")

	// Then only the matched span changed
	req.Equal("oi *****, pass the salt", masked)
}
