package suggest

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Trie is a patricia trie of normalized words, each carrying its
// vocabulary position as payload. A node is a stored word iff it has a
// payload, so subtree walks never yield bare internal paths.
//
// Reads share an RWMutex; Insert takes it exclusively.
type Trie struct {
	mu   sync.RWMutex
	root *patricia.Trie
	size int
}

// NewTrie returns an empty trie
func NewTrie() *Trie {
	return &Trie{root: patricia.NewTrie()}
}

// Insert stores word with payload, overwriting the payload if the word
// is already present. The word must already be normalized.
func (t *Trie) Insert(word string, payload int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root.Insert(patricia.Prefix(word), payload) {
		t.size++
		return
	}
	t.root.Set(patricia.Prefix(word), payload)
}

// payload returns the position stored for word
func (t *Trie) payload(word string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	item := t.root.Get(patricia.Prefix(word))
	if item == nil {
		return 0, false
	}
	pos, ok := item.(int)
	return pos, ok
}

// Contains reports whether word itself is stored (not just a prefix of one)
func (t *Trie) Contains(word string) bool {
	_, ok := t.payload(word)
	return ok
}

// HasPrefix reports whether at least one stored word starts with prefix.
// Always false on an empty trie, including for the empty prefix.
func (t *Trie) HasPrefix(prefix string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.size == 0 {
		return false
	}
	return t.root.MatchSubtree(patricia.Prefix(prefix))
}

// KeysWithPrefix returns every stored word starting with prefix in the
// trie's walk order, which is deterministic for a given insertion history.
// The empty prefix yields the whole vocabulary.
func (t *Trie) KeysWithPrefix(prefix string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := []string{}
	err := t.root.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		keys = append(keys, string(p))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
	}
	return keys
}

// Len returns the number of stored words
func (t *Trie) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}
