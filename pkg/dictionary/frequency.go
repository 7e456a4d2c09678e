package dictionary

import (
	"sync"
)

// DefaultScore is what Score reports for a word the table has never seen.
// It only affects ordering and is never written back to the table.
const DefaultScore = 1.0

// FrequencyTable maps words to insertion-rank scores.
// Scores are compared, never combined, so float64 precision is plenty.
type FrequencyTable struct {
	mu     sync.RWMutex
	scores map[string]float64
	// assigned counts every rank handed out, including pruned ones, so a
	// newly recorded word always scores below everything recorded before it.
	assigned int
}

// NewFrequencyTable returns an empty table
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{scores: make(map[string]float64)}
}

// FrequencyTableFrom wraps persisted scores. The next rank continues after
// the number of loaded entries.
func FrequencyTableFrom(scores map[string]float64) *FrequencyTable {
	ft := &FrequencyTable{
		scores:   make(map[string]float64, len(scores)),
		assigned: len(scores),
	}
	for w, s := range scores {
		ft.scores[w] = s
	}
	return ft
}

// Score returns the stored score for word or DefaultScore if absent
func (ft *FrequencyTable) Score(word string) float64 {
	if s, ok := ft.Lookup(word); ok {
		return s
	}
	return DefaultScore
}

// Lookup returns the stored score and whether the word is present
func (ft *FrequencyTable) Lookup(word string) (float64, bool) {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	s, ok := ft.scores[word]
	return s, ok
}

// RecordFirstSeen assigns 1/(1+n) to word, n being the number of ranks
// already handed out, unless the word already has a score. Either way the
// word's score is returned, so recording twice equals recording once.
func (ft *FrequencyTable) RecordFirstSeen(word string) float64 {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if s, ok := ft.scores[word]; ok {
		return s
	}
	s := 1.0 / float64(1+ft.assigned)
	ft.scores[word] = s
	ft.assigned++
	return s
}

// Retain drops every entry keep rejects and returns how many were dropped.
// Ranks already handed out are not reused.
func (ft *FrequencyTable) Retain(keep func(word string) bool) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	dropped := 0
	for w := range ft.scores {
		if !keep(w) {
			delete(ft.scores, w)
			dropped++
		}
	}
	return dropped
}

func (ft *FrequencyTable) Len() int {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	return len(ft.scores)
}

// Snapshot returns a copy of all scores
func (ft *FrequencyTable) Snapshot() map[string]float64 {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	out := make(map[string]float64, len(ft.scores))
	for w, s := range ft.scores {
		out[w] = s
	}
	return out
}
