package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bastiangx/recomserve/pkg/dictionary"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type generateCall struct {
	prefix string
	count  int
}

// stubGenerator returns canned continuations and records every call
type stubGenerator struct {
	mu    sync.Mutex
	calls []generateCall
	out   []string
	err   error
	delay time.Duration
}

func (s *stubGenerator) Generate(ctx context.Context, prefix string, count int) ([]string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, generateCall{prefix: prefix, count: count})
	out, err, delay := s.out, s.err, s.delay
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, err
}

func (s *stubGenerator) Calls() []generateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]generateCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// newTestCompleter ranks words in the given order, first word highest
func newTestCompleter(t *testing.T, words []string, gen Generator, opts Options) *Completer {
	t.Helper()
	vocab, err := dictionary.NewVocabulary(words)
	require.NoError(t, err)
	freqs := dictionary.NewFrequencyTable()
	for _, w := range words {
		freqs.RecordFirstSeen(w)
	}
	return NewCompleter(vocab, freqs, gen, opts)
}
