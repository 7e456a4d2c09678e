package suggest

import (
	"sync"
)

// LearnedWords remembers the words the engine accepted from its generator
// since startup, in acceptance order.
type LearnedWords struct {
	mu    sync.RWMutex
	words []string
	seen  map[string]struct{}
}

func NewLearnedWords() *LearnedWords {
	return &LearnedWords{seen: make(map[string]struct{})}
}

// Record adds word and reports whether it was new
func (lw *LearnedWords) Record(word string) bool {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if _, ok := lw.seen[word]; ok {
		return false
	}
	lw.seen[word] = struct{}{}
	lw.words = append(lw.words, word)
	return true
}

// Words returns a copy of the learned words
func (lw *LearnedWords) Words() []string {
	lw.mu.RLock()
	defer lw.mu.RUnlock()
	out := make([]string, len(lw.words))
	copy(out, lw.words)
	return out
}

func (lw *LearnedWords) Len() int {
	lw.mu.RLock()
	defer lw.mu.RUnlock()
	return len(lw.words)
}
