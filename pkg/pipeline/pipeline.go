// Package pipeline prepares the dictionary files the server loads: the
// frequency table from a lexicon, the vocabulary, and optionally the
// vocabulary embeddings. Each step is skipped when its output already
// exists, unless forced.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/config"
	"github.com/bastiangx/recomserve/pkg/dictionary"
	"github.com/bastiangx/recomserve/pkg/embedding"
)

// StepStatus is the outcome of one pipeline step
type StepStatus string

const (
	StatusBuilt    StepStatus = "built"
	StatusSkipped  StepStatus = "skipped"
	StatusDisabled StepStatus = "disabled"
)

// Options controls a pipeline run
type Options struct {
	Dict  config.DictConfig
	Force bool
	// Embedder computes vector batches; nil disables the embeddings step
	Embedder  embedding.Embedder
	BatchSize int
	Parallel  int
}

// Report lists what each step did
type Report struct {
	Frequency  StepStatus
	Vocabulary StepStatus
	Embeddings StepStatus
	Words      int
}

// Run executes the steps in order: frequency, vocabulary, embeddings
func Run(ctx context.Context, opts Options) (*Report, error) {
	if err := utils.EnsureDir(opts.Dict.DataDir); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	report := &Report{}

	status, err := buildFrequency(opts)
	if err != nil {
		return nil, err
	}
	report.Frequency = status

	vocab, status, err := buildVocabulary(opts)
	if err != nil {
		return nil, err
	}
	report.Vocabulary = status
	report.Words = vocab.Len()

	status, err = buildEmbeddings(ctx, opts, vocab)
	if err != nil {
		return nil, err
	}
	report.Embeddings = status

	log.Infof("Pipeline done: frequency %s, vocabulary %s (%d words), embeddings %s",
		report.Frequency, report.Vocabulary, report.Words, report.Embeddings)
	return report, nil
}

func skip(path string, force bool) bool {
	return !force && utils.FileExists(path)
}

// buildFrequency ranks the lexicon. A missing lexicon is not fatal: an
// empty table is written so later steps and the server still start.
func buildFrequency(opts Options) (StepStatus, error) {
	out := opts.Dict.Path(opts.Dict.FrequencyFile)
	if skip(out, opts.Force) {
		log.Infof("Frequency table exists, skipping: %s", out)
		return StatusSkipped, nil
	}

	lexicon := opts.Dict.Path(opts.Dict.LexiconFile)
	if lexicon == "" || !utils.FileExists(lexicon) {
		log.Warnf("Lexicon %q not found, writing an empty frequency table", lexicon)
		if err := dictionary.SaveFrequency(out, dictionary.NewFrequencyTable()); err != nil {
			return "", fmt.Errorf("save frequency table: %w", err)
		}
		return StatusBuilt, nil
	}

	f, err := os.Open(lexicon)
	if err != nil {
		return "", fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()

	r, err := dictionary.DecodeReader(f, opts.Dict.LexiconEncoding)
	if err != nil {
		return "", err
	}
	ft, stats, err := dictionary.BuildFrequency(r)
	if err != nil {
		return "", err
	}
	if err := dictionary.SaveFrequency(out, ft); err != nil {
		return "", fmt.Errorf("save frequency table: %w", err)
	}
	log.Infof("Ranked %d words from %s (%d lines, %d skipped)", stats.Accepted, lexicon, stats.Lines, stats.Skipped)
	return StatusBuilt, nil
}

// buildVocabulary selects words from the word list when one is
// configured, otherwise the lexicon words from most to least frequent.
func buildVocabulary(opts Options) (*dictionary.Vocabulary, StepStatus, error) {
	out := opts.Dict.Path(opts.Dict.VocabularyFile)
	if skip(out, opts.Force) {
		log.Infof("Vocabulary exists, skipping: %s", out)
		vocab, err := dictionary.LoadVocabulary(out)
		if err != nil {
			return nil, "", err
		}
		return vocab, StatusSkipped, nil
	}

	var candidates []string
	if opts.Dict.WordListFile != "" {
		path := opts.Dict.Path(opts.Dict.WordListFile)
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open word list: %w", err)
		}
		candidates, err = dictionary.ReadWordList(f)
		f.Close()
		if err != nil {
			return nil, "", fmt.Errorf("read word list %s: %w", path, err)
		}
	} else {
		ft, err := dictionary.LoadFrequency(opts.Dict.Path(opts.Dict.FrequencyFile))
		if err != nil {
			return nil, "", err
		}
		candidates = dictionary.RankedWords(ft)
	}

	vocab := dictionary.BuildVocabulary(candidates, opts.Dict.MinWordLen, opts.Dict.MaxWords)
	if err := dictionary.SaveVocabulary(out, vocab); err != nil {
		return nil, "", fmt.Errorf("save vocabulary: %w", err)
	}
	log.Infof("Vocabulary of %d words saved to %s", vocab.Len(), out)
	return vocab, StatusBuilt, nil
}

func buildEmbeddings(ctx context.Context, opts Options, vocab *dictionary.Vocabulary) (StepStatus, error) {
	if opts.Dict.EmbeddingsFile == "" || opts.Embedder == nil {
		log.Info("Embeddings step disabled")
		return StatusDisabled, nil
	}
	out := opts.Dict.Path(opts.Dict.EmbeddingsFile)
	if skip(out, opts.Force) {
		log.Infof("Embeddings exist, skipping: %s", out)
		return StatusSkipped, nil
	}

	store, err := embedding.Build(ctx, vocab.Words(), opts.Embedder, opts.BatchSize, opts.Parallel)
	if err != nil {
		return "", fmt.Errorf("compute embeddings: %w", err)
	}
	if err := embedding.SaveStore(out, store); err != nil {
		return "", fmt.Errorf("save embeddings: %w", err)
	}
	return StatusBuilt, nil
}
