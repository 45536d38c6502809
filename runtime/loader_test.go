package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCensoredWords_Reads_Embedded_Dictionaries(t *testing.T) {
	req := require.New(t)

	data, err := LoadCensoredWords()

	req.NoError(err)
	req.Contains(data.Languages, "en")
	req.NotEmpty(data.Words)
	req.Contains(data.Words, "bollocks")

	// Comment lines never end up in the blacklist
	for _, word := range data.Words {
		req.NotContains(word, "#")
	}
}
