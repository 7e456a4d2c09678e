// Package suggest is the core, providing the trie lookups, ranking and the generative fallback merge.
package suggest

import "context"

// Generator produces raw continuations for a prefix, e.g. "riz" for "at".
// Output is sampled: two calls with the same arguments may differ, and
// implementations own their model's lifecycle.
type Generator interface {
	Generate(ctx context.Context, prefix string, count int) ([]string, error)
}

// GeneratorFunc adapts a plain function to Generator
type GeneratorFunc func(ctx context.Context, prefix string, count int) ([]string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prefix string, count int) ([]string, error) {
	return f(ctx, prefix, count)
}

// ICompleter defines the interface the front ends (HTTP, IPC, CLI) use
type ICompleter interface {
	// Complete returns the hybrid result: dictionary hits, topped up by
	// the generator when there are fewer than limit.
	Complete(ctx context.Context, prefix string, limit int) []string

	// Dictionary returns dictionary hits only, highest score first.
	Dictionary(prefix string, limit int) []string

	// Generated returns generator output only, as completed words.
	Generated(ctx context.Context, prefix string, limit int) ([]string, error)

	// Frequency returns the stored score of a word.
	Frequency(word string) (float64, bool)

	// Stats returns counters about the loaded dictionary and fallback use.
	Stats() map[string]int
}
