package utils

// SuggestionFilter drops repeated words while keeping first-seen order.
// Not safe for concurrent use; create one per request.
type SuggestionFilter struct {
	seenWords map[string]struct{}
}

// NewSuggestionFilter creates a filter that already treats the given words as seen
func NewSuggestionFilter(seen ...string) *SuggestionFilter {
	seenWords := make(map[string]struct{}, len(seen))
	for _, w := range seen {
		seenWords[w] = struct{}{}
	}
	return &SuggestionFilter{seenWords: seenWords}
}

// ShouldInclude checks if a word should be included in results (not a duplicate)
// Returns true if the word should be included, false if it's a duplicate
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	if _, ok := f.seenWords[word]; ok {
		return false
	}
	f.seenWords[word] = struct{}{}
	return true
}

// Seen reports whether a word was already admitted, without recording it
func (f *SuggestionFilter) Seen(word string) bool {
	_, ok := f.seenWords[word]
	return ok
}

// Dedupe returns words with later repeats removed
func Dedupe(words []string) []string {
	f := NewSuggestionFilter()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f.ShouldInclude(w) {
			out = append(out, w)
		}
	}
	return out
}
