package generate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/dictionary"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

// Static continues prefixes from a fixed word list, in list order.
// Deterministic, so it serves offline setups and tests.
type Static struct {
	words []string
}

// NewStatic normalizes words and drops repeats
func NewStatic(words []string) *Static {
	filter := utils.NewSuggestionFilter()
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = utils.NormalizeWord(strings.TrimSpace(w))
		if w != "" && filter.ShouldInclude(w) {
			kept = append(kept, w)
		}
	}
	return &Static{words: kept}
}

// LoadStatic reads a word list with one word per line
func LoadStatic(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open static word list: %w", err)
	}
	defer f.Close()

	words, err := dictionary.ReadWordList(f)
	if err != nil {
		return nil, fmt.Errorf("read static word list %s: %w", path, err)
	}
	return NewStatic(words), nil
}

// Generate returns the remainder of up to count listed words that extend prefix
func (s *Static) Generate(ctx context.Context, prefix string, count int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []string{}
	if count <= 0 {
		return out, nil
	}
	for _, w := range s.words {
		if len(out) == count {
			break
		}
		if len(w) > len(prefix) && strings.HasPrefix(w, prefix) {
			out = append(out, w[len(prefix):])
		}
	}
	return out, nil
}

// Disabled is the generator for provider "none": every call fails, so
// the engine serves dictionary hits only.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, int) ([]string, error) {
	return nil, fmt.Errorf("%w: fallback disabled", suggest.ErrAdapterUnavailable)
}
