package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrieEveryPrefixMatches(t *testing.T) {
	trie := NewTrie()
	words := []string{"ato", "atriz", "atual", "coração"}
	for i, w := range words {
		trie.Insert(w, i)
	}

	for _, w := range words {
		runes := []rune(w)
		for i := 0; i <= len(runes); i++ {
			assert.True(t, trie.HasPrefix(string(runes[:i])), "prefix %q of %q", string(runes[:i]), w)
		}
	}
	assert.False(t, trie.HasPrefix("atrizes"))
	assert.False(t, trie.HasPrefix("b"))
}

func TestTrieKeysWithPrefix(t *testing.T) {
	trie := NewTrie()
	words := []string{"ato", "atriz", "atual", "casa"}
	for i, w := range words {
		trie.Insert(w, i)
	}

	testCases := []struct {
		prefix      string
		expected    []string
		description string
	}{
		{"", words, "empty prefix yields every word once"},
		{"at", []string{"ato", "atriz", "atual"}, "shared prefix"},
		{"atr", []string{"atriz"}, "single branch"},
		{"atriz", []string{"atriz"}, "exact word"},
		{"atrizes", []string{}, "longer than every word"},
		{"x", []string{}, "no subtree"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			keys := trie.KeysWithPrefix(tc.prefix)
			assert.ElementsMatch(t, tc.expected, keys)
			assert.Equal(t, keys, trie.KeysWithPrefix(tc.prefix), "walk order must be deterministic")
		})
	}
}

func TestTrieInsertOverwritesPayload(t *testing.T) {
	trie := NewTrie()
	trie.Insert("ato", 0)
	trie.Insert("ato", 7)

	pos, ok := trie.payload("ato")
	assert.True(t, ok)
	assert.Equal(t, 7, pos)
	assert.Equal(t, 1, trie.Len())

	assert.True(t, trie.Contains("ato"))
	assert.False(t, trie.Contains("at"), "internal path is not a word")
	_, ok = trie.payload("at")
	assert.False(t, ok)
}

func TestEmptyTrie(t *testing.T) {
	trie := NewTrie()
	assert.False(t, trie.HasPrefix(""))
	assert.Empty(t, trie.KeysWithPrefix(""))
	assert.Equal(t, 0, trie.Len())
}
