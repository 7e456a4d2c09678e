/*
Package dictionary holds the word data the completion engine is built from.

A Vocabulary is the ordered list of known words; a word's index is its
position and never changes once assigned, so positions can key other data
such as embedding vectors. A FrequencyTable maps words to an insertion-rank
score: the first word recorded scores 1, the next 1/2, then 1/3 and so on.

Both are loaded once at startup from MessagePack snapshots written by the
prepare pipeline, and only grow afterwards when the completion engine learns
a word from its generative fallback.
*/
package dictionary

import (
	"fmt"
	"sync"

	"github.com/bastiangx/recomserve/internal/utils"
)

// Vocabulary is an ordered, duplicate-free list of normalized words
type Vocabulary struct {
	mu    sync.RWMutex
	words []string
	index map[string]int
}

// NewVocabulary builds a vocabulary from words already in stored form.
// Malformed input (non-normalized, non-alphabetic or duplicate entries)
// is rejected because positions must line up with other persisted data.
func NewVocabulary(words []string) (*Vocabulary, error) {
	v := &Vocabulary{
		words: make([]string, 0, len(words)),
		index: make(map[string]int, len(words)),
	}
	for i, w := range words {
		if w != utils.NormalizeWord(w) || !utils.IsAlphabetic(w) {
			return nil, fmt.Errorf("entry %d %q is not a normalized alphabetic word", i, w)
		}
		if prev, dup := v.index[w]; dup {
			return nil, fmt.Errorf("entry %d %q duplicates entry %d", i, w, prev)
		}
		v.index[w] = len(v.words)
		v.words = append(v.words, w)
	}
	return v, nil
}

// Add appends word and returns its position. Adding a known word is a
// no-op that returns the existing position with added=false.
func (v *Vocabulary) Add(word string) (pos int, added bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if pos, ok := v.index[word]; ok {
		return pos, false
	}
	pos = len(v.words)
	v.index[word] = pos
	v.words = append(v.words, word)
	return pos, true
}

// Position returns the stable index of word
func (v *Vocabulary) Position(word string) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pos, ok := v.index[word]
	return pos, ok
}

func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.Position(word)
	return ok
}

func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.words)
}

// Words returns a copy of the words in position order
func (v *Vocabulary) Words() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}
