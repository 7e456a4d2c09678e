package suggest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/bastiangx/recomserve/internal/logger"
	"github.com/bastiangx/recomserve/internal/metrics"
	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/dictionary"
)

const (
	DefaultLimit      = 5
	DefaultOversample = 2
	DefaultTimeout    = 5 * time.Second

	// MaxFallbackCount caps the continuations asked for in one call
	MaxFallbackCount = 1024
)

// Options tunes the generative fallback. Zero values take the defaults.
type Options struct {
	// Oversample multiplies limit to get the number of continuations requested
	Oversample int
	Timeout    time.Duration
	Logger     *log.Logger
}

// Completer answers prefix queries from the trie and tops up short
// results with generator output, learning every accepted word.
type Completer struct {
	trie      *Trie
	vocab     *dictionary.Vocabulary
	freqs     *dictionary.FrequencyTable
	generator Generator
	learned   *LearnedWords

	oversample int
	timeout    time.Duration
	logger     *log.Logger

	// learnMu makes the check-then-insert across trie, vocabulary and
	// frequency table atomic. Lookups never take it.
	learnMu  sync.Mutex
	inflight singleflight.Group

	fallbackCalls    atomic.Int64
	fallbackFailures atomic.Int64
}

// NewCompleter builds the trie from vocab, each word carrying its position.
// Frequency entries for words outside the vocabulary are dropped from freqs
// so that every scored word can be found by a lookup. generator may be nil,
// which behaves like a generator that always fails.
func NewCompleter(vocab *dictionary.Vocabulary, freqs *dictionary.FrequencyTable, generator Generator, opts Options) *Completer {
	if opts.Oversample <= 0 {
		opts.Oversample = DefaultOversample
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("engine")
	}

	c := &Completer{
		trie:       NewTrie(),
		vocab:      vocab,
		freqs:      freqs,
		generator:  generator,
		learned:    NewLearnedWords(),
		oversample: opts.Oversample,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}

	start := time.Now()
	for pos, w := range vocab.Words() {
		c.trie.Insert(w, pos)
	}
	if dropped := freqs.Retain(c.trie.Contains); dropped > 0 {
		c.logger.Debugf("Dropped %d scored words missing from the vocabulary", dropped)
	}
	c.logger.Debugf("Built trie with %d words in %v", c.trie.Len(), time.Since(start))
	return c
}

// Complete returns up to limit completions of prefix. Dictionary hits come
// first, highest score first; when there are fewer than limit of them the
// generator is asked for more and the merged set is returned in lexical
// order. Generator failures leave the dictionary hits as the result.
func (c *Completer) Complete(ctx context.Context, prefix string, limit int) []string {
	start := time.Now()
	defer func() {
		metrics.CompletionDuration.WithLabelValues(metrics.ModeHybrid).Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = DefaultLimit
	}
	word, err := normalizePrefix(prefix)
	if err != nil {
		c.logger.Debug("Rejected prefix", "prefix", prefix, "err", err)
		metrics.CompletionsTotal.WithLabelValues(metrics.ModeHybrid, metrics.OutcomeInvalid).Inc()
		return []string{}
	}

	candidates := c.rankedHits(word)
	if len(candidates) >= limit {
		metrics.CompletionsTotal.WithLabelValues(metrics.ModeHybrid, metrics.OutcomeDictionary).Inc()
		return candidates[:limit]
	}

	raw, err := c.generate(ctx, word, c.fallbackCount(limit))
	if err != nil {
		c.logger.Warn("Fallback failed, serving dictionary hits", "prefix", word, "hits", len(candidates), "err", err)
		metrics.CompletionsTotal.WithLabelValues(metrics.ModeHybrid, metrics.OutcomeDegraded).Inc()
		return candidates
	}

	accepted := acceptContinuations(word, candidates, raw)
	c.learn(accepted)

	merged := utils.Dedupe(append(candidates, accepted...))
	sort.Strings(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	metrics.CompletionsTotal.WithLabelValues(metrics.ModeHybrid, metrics.OutcomeFallback).Inc()
	return merged
}

// Dictionary returns up to limit trie hits, highest score first. It never
// calls the generator.
func (c *Completer) Dictionary(prefix string, limit int) []string {
	start := time.Now()
	defer func() {
		metrics.CompletionDuration.WithLabelValues(metrics.ModeDictionary).Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = DefaultLimit
	}
	word, err := normalizePrefix(prefix)
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues(metrics.ModeDictionary, metrics.OutcomeInvalid).Inc()
		return []string{}
	}

	hits := c.rankedHits(word)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	metrics.CompletionsTotal.WithLabelValues(metrics.ModeDictionary, metrics.OutcomeDictionary).Inc()
	return hits
}

// Generated asks the generator for limit continuations and returns the
// alphabetic completed words, without repeats, in the generator's order.
// Nothing is learned.
func (c *Completer) Generated(ctx context.Context, prefix string, limit int) ([]string, error) {
	start := time.Now()
	defer func() {
		metrics.CompletionDuration.WithLabelValues(metrics.ModeGenerated).Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = DefaultLimit
	}
	word, err := normalizePrefix(prefix)
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues(metrics.ModeGenerated, metrics.OutcomeInvalid).Inc()
		return []string{}, err
	}

	raw, err := c.generate(ctx, word, min(limit, MaxFallbackCount))
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues(metrics.ModeGenerated, metrics.OutcomeDegraded).Inc()
		return []string{}, err
	}

	filter := utils.NewSuggestionFilter()
	out := []string{}
	for _, cont := range raw {
		cont = utils.NormalizeWord(strings.TrimSpace(cont))
		if cont == "" {
			continue
		}
		completed := utils.NormalizeWord(word + cont)
		if !utils.IsAlphabetic(completed) || !filter.ShouldInclude(completed) {
			continue
		}
		out = append(out, completed)
		if len(out) == limit {
			break
		}
	}
	metrics.CompletionsTotal.WithLabelValues(metrics.ModeGenerated, metrics.OutcomeFallback).Inc()
	return out, nil
}

// Frequency returns the stored score of word after normalization
func (c *Completer) Frequency(word string) (float64, bool) {
	return c.freqs.Lookup(utils.NormalizeWord(strings.TrimSpace(word)))
}

func (c *Completer) Stats() map[string]int {
	return map[string]int{
		"words":            c.trie.Len(),
		"scoredWords":      c.freqs.Len(),
		"learnedWords":     c.learned.Len(),
		"fallbackCalls":    int(c.fallbackCalls.Load()),
		"fallbackFailures": int(c.fallbackFailures.Load()),
	}
}

// Learned returns the words accepted from the generator since startup
func (c *Completer) Learned() []string {
	return c.learned.Words()
}

// Persist writes the vocabulary and frequency table, learned words
// included. Learning is paused while the snapshot is taken.
func (c *Completer) Persist(vocabPath, freqPath string) error {
	c.learnMu.Lock()
	defer c.learnMu.Unlock()

	if err := dictionary.SaveVocabulary(vocabPath, c.vocab); err != nil {
		return fmt.Errorf("persist vocabulary: %w", err)
	}
	if err := dictionary.SaveFrequency(freqPath, c.freqs); err != nil {
		return fmt.Errorf("persist frequency table: %w", err)
	}
	return nil
}

// rankedHits lists the stored words under prefix, highest score first and
// lexical order between equal scores.
func (c *Completer) rankedHits(prefix string) []string {
	if !c.trie.HasPrefix(prefix) {
		return []string{}
	}
	keys := c.trie.KeysWithPrefix(prefix)

	scores := make(map[string]float64, len(keys))
	for _, k := range keys {
		scores[k] = c.freqs.Score(k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if scores[keys[i]] != scores[keys[j]] {
			return scores[keys[i]] > scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// generate calls the generator under the configured timeout. Identical
// concurrent requests share one call. The shared call is detached from
// every caller's cancellation and bounded only by the timeout; each caller
// stops waiting when its own ctx ends.
func (c *Completer) generate(ctx context.Context, prefix string, count int) ([]string, error) {
	if c.generator == nil {
		return nil, ErrAdapterUnavailable
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: invalid continuation count %d", ErrAdapterUnavailable, count)
	}

	detached := context.WithoutCancel(ctx)
	key := prefix + "\x00" + strconv.Itoa(count)
	ch := c.inflight.DoChan(key, func() (any, error) {
		c.fallbackCalls.Add(1)

		gctx, cancel := context.WithTimeout(detached, c.timeout)
		defer cancel()

		out, err := c.generator.Generate(gctx, prefix, count)
		if err != nil {
			c.fallbackFailures.Add(1)
			return nil, classifyGeneratorError(gctx, err)
		}
		return out, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("Shared generator call", "prefix", prefix, "count", count)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	case <-ctx.Done():
		return nil, classifyGeneratorError(ctx, ctx.Err())
	}
}

// fallbackCount is oversample*limit, saturating at MaxFallbackCount
func (c *Completer) fallbackCount(limit int) int {
	if limit > MaxFallbackCount/c.oversample {
		return MaxFallbackCount
	}
	return c.oversample * limit
}

// learn adds accepted words to the trie, vocabulary and frequency table
func (c *Completer) learn(words []string) {
	if len(words) == 0 {
		return
	}
	c.learnMu.Lock()
	defer c.learnMu.Unlock()

	for _, w := range words {
		if c.trie.Contains(w) {
			continue
		}
		pos, _ := c.vocab.Add(w)
		c.trie.Insert(w, pos)
		score := c.freqs.RecordFirstSeen(w)
		if c.learned.Record(w) {
			metrics.LearnedWordsTotal.Inc()
			c.logger.Debug("Learned word", "word", w, "position", pos, "score", score)
		}
	}
}

// acceptContinuations turns raw continuations into completed words,
// dropping single characters, anything already among the candidates and
// anything not purely alphabetic.
func acceptContinuations(prefix string, candidates, raw []string) []string {
	filter := utils.NewSuggestionFilter(candidates...)
	var accepted []string
	for _, cont := range raw {
		cont = utils.NormalizeWord(strings.TrimSpace(cont))
		if utils.RuneLen(cont) <= 1 || filter.Seen(cont) {
			continue
		}
		completed := utils.NormalizeWord(prefix + cont)
		if !utils.IsAlphabetic(completed) || !filter.ShouldInclude(completed) {
			continue
		}
		accepted = append(accepted, completed)
	}
	return accepted
}

func normalizePrefix(prefix string) (string, error) {
	word := utils.NormalizeWord(strings.TrimSpace(prefix))
	if !utils.IsAlphabetic(word) {
		return "", fmt.Errorf("%w: %q", ErrInvalidInput, prefix)
	}
	return word, nil
}

func classifyGeneratorError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrAdapterTimeout), errors.Is(err, ErrAdapterUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrAdapterTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrAdapterUnavailable, err)
	}
}
