package suggest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var concurrentPrefixes = [][]string{
	{"a", "at", "atr", "atri", "atriz"},
	{"c", "ca", "cas", "casa"},
	{"t", "te", "tem", "temp", "tempo"},
	{"v", "vi", "vid", "vida"},
	{"x", "xy", "xyz"},
}

// echoGenerator continues every prefix with the same few endings, so
// concurrent requests keep learning overlapping words.
var echoGenerator = GeneratorFunc(func(ctx context.Context, prefix string, count int) ([]string, error) {
	out := []string{"r", "ra", "ro", "lo", "nte", "mos"}
	if count < len(out) {
		out = out[:count]
	}
	return out, nil
})

func TestConcurrentCompleteKeepsStructuresConsistent(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 200},
		{workers: 4, iterationsPerWorker: 50},
		{workers: 16, iterationsPerWorker: 20},
	}

	for _, config := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", config.workers, config.iterationsPerWorker), func(t *testing.T) {
			runConcurrentCompleteTest(t, config.workers, config.iterationsPerWorker)
		})
	}
}

func runConcurrentCompleteTest(t *testing.T, workers, iterationsPerWorker int) {
	c := newTestCompleter(t, []string{"ato", "atriz", "atual", "casa", "tempo", "vida"}, echoGenerator, Options{})

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < iterationsPerWorker; i++ {
				pattern := concurrentPrefixes[(worker+i)%len(concurrentPrefixes)]
				for _, prefix := range pattern {
					got := c.Complete(context.Background(), prefix, 5)
					assert.LessOrEqual(t, len(got), 5)
					for _, w := range got {
						assert.True(t, strings.HasPrefix(w, prefix), "%q does not start with %q", w, prefix)
					}
					_ = c.Dictionary(prefix, 5)
				}
			}
		}(worker)
	}
	wg.Wait()

	// every scored word is reachable and every word has exactly one position
	for w := range c.freqs.Snapshot() {
		assert.True(t, c.trie.Contains(w), "scored word %q missing from trie", w)
	}
	assert.Equal(t, c.vocab.Len(), c.trie.Len())
	words := c.vocab.Words()
	for _, w := range words {
		pos, ok := c.trie.payload(w)
		require.True(t, ok, w)
		require.Less(t, pos, len(words))
		assert.Equal(t, w, words[pos])
	}

	learned := c.Learned()
	assert.ElementsMatch(t, learned, dedupe(learned), "a word was learned twice")
	assert.Equal(t, c.vocab.Len()-6, len(learned))
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	var out []string
	for _, w := range words {
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

// gatedGenerator blocks calls for one prefix until release is closed and
// answers every other prefix at once.
type gatedGenerator struct {
	gated   string
	out     []string
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedGenerator(gated string, out ...string) *gatedGenerator {
	return &gatedGenerator{
		gated:   gated,
		out:     out,
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *gatedGenerator) Generate(ctx context.Context, prefix string, count int) ([]string, error) {
	if prefix != g.gated {
		return g.out, nil
	}
	g.calls.Add(1)
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
		return g.out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestGeneratorCallHoldsNoLock(t *testing.T) {
	gen := newGatedGenerator("xy", "las")
	c := newTestCompleter(t, baseWords, gen, Options{})

	slow := make(chan []string)
	go func() {
		slow <- c.Complete(context.Background(), "xy", 5)
	}()
	<-gen.entered

	// "xy" is now waiting on the generator; other requests, learning
	// included, must go through.
	assert.Equal(t, []string{"ato", "atriz", "atual"}, c.Complete(context.Background(), "at", 3))
	assert.Equal(t, []string{"ato", "atriz"}, c.Dictionary("at", 2))
	assert.Equal(t, []string{"atlas", "ato", "atriz", "atual"}, c.Complete(context.Background(), "at", 5))
	_, found := c.Frequency("atlas")
	assert.True(t, found)
	assert.Equal(t, 1, c.Stats()["learnedWords"])

	close(gen.release)
	assert.Equal(t, []string{"xylas"}, <-slow)
}

func TestConcurrentIdenticalRequestsShareOneCall(t *testing.T) {
	const callers = 8
	gen := newGatedGenerator("xy", "lo", "ma")
	c := newTestCompleter(t, baseWords, gen, Options{})

	results := make(chan []string, callers)
	var joined sync.WaitGroup
	for i := 0; i < callers; i++ {
		joined.Add(1)
		go func() {
			joined.Done()
			results <- c.Complete(context.Background(), "xy", 5)
		}()
	}
	joined.Wait()
	<-gen.entered
	// give the remaining callers time to join the call in flight
	time.Sleep(50 * time.Millisecond)
	close(gen.release)

	for i := 0; i < callers; i++ {
		assert.Equal(t, []string{"xylo", "xyma"}, <-results)
	}
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, []string{"xylo", "xyma"}, c.Learned())
}

func TestCallerCancellationDoesNotSpoilSharedCall(t *testing.T) {
	gen := newGatedGenerator("at", "las")
	c := newTestCompleter(t, baseWords, gen, Options{})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leader := make(chan []string)
	go func() {
		leader <- c.Complete(leaderCtx, "at", 5)
	}()
	<-gen.entered

	follower := make(chan []string)
	go func() {
		follower <- c.Complete(context.Background(), "at", 5)
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	assert.Equal(t, []string{"ato", "atriz", "atual"}, <-leader, "cancelled caller degrades to dictionary hits")

	close(gen.release)
	assert.Equal(t, []string{"atlas", "ato", "atriz", "atual"}, <-follower)
	assert.Equal(t, int32(1), gen.calls.Load())
}
