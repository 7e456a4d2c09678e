package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/recomserve/internal/logger"
	"github.com/bastiangx/recomserve/internal/metrics"
	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/config"
	"github.com/bastiangx/recomserve/pkg/dictionary"
	"github.com/bastiangx/recomserve/pkg/embedding"
	"github.com/bastiangx/recomserve/pkg/generate"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

// app is everything a front end needs, built once per process
type app struct {
	cfg        *config.Config
	cfgPath    string
	completer  *suggest.Completer
	embeddings *embedding.Index
}

// loadConfig reads the config and applies the --data override
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadConfigWithPriority(configPath)
	if err != nil {
		return nil, "", err
	}
	if dataDir != "" {
		cfg.Dict.DataDir = dataDir
	}
	return cfg, path, nil
}

// resolveDataDir points cfg at the first data dir candidate holding a vocabulary
func resolveDataDir(cfg *config.Config) {
	resolver, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("Path resolver unavailable, using %s as is: %v", cfg.Dict.DataDir, err)
		return
	}
	cfg.Dict.DataDir = resolver.GetDataDir(cfg.Dict.DataDir, cfg.Dict.VocabularyFile)
	log.Debugf("Using data dir at: %s", cfg.Dict.DataDir)
}

// bootstrap loads the dictionary and wires the generator into a completer.
// A missing or malformed dictionary is returned as an error wrapping
// dictionary.ErrStoreLoad.
func bootstrap() (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	resolveDataDir(cfg)

	vocab, err := dictionary.LoadVocabulary(cfg.Dict.Path(cfg.Dict.VocabularyFile))
	if err != nil {
		return nil, err
	}
	freqs, err := dictionary.LoadFrequency(cfg.Dict.Path(cfg.Dict.FrequencyFile))
	if err != nil {
		return nil, err
	}

	gen, err := generate.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init generator: %w", err)
	}

	metrics.Register()
	completer := suggest.NewCompleter(vocab, freqs, gen, suggest.Options{
		Oversample: cfg.Fallback.Oversample,
		Timeout:    cfg.Fallback.Timeout(),
		Logger:     logger.New("engine"),
	})

	rt := &app{cfg: cfg, cfgPath: path, completer: completer}
	rt.embeddings = loadEmbeddings(cfg, vocab)

	log.Debug("Completer ready",
		"words", vocab.Len(),
		"scored", freqs.Len(),
		"provider", cfg.Fallback.Provider,
		"embeddings", rt.embeddings != nil)
	return rt, nil
}

// loadEmbeddings is optional: any failure leaves the embedding lookup off
func loadEmbeddings(cfg *config.Config, vocab *dictionary.Vocabulary) *embedding.Index {
	path := cfg.Dict.Path(cfg.Dict.EmbeddingsFile)
	if path == "" || !utils.FileExists(path) {
		return nil
	}
	store, err := embedding.LoadStore(path)
	if err != nil {
		log.Warnf("Ignoring embeddings: %v", err)
		return nil
	}
	ix, err := embedding.NewIndex(vocab, store)
	if err != nil {
		log.Warnf("Ignoring embeddings: %v", err)
		return nil
	}
	return ix
}

// persist writes learned words back when the config asks for it
func (rt *app) persist() {
	if !rt.cfg.Dict.PersistLearned || len(rt.completer.Learned()) == 0 {
		return
	}
	d := rt.cfg.Dict
	if err := rt.completer.Persist(d.Path(d.VocabularyFile), d.Path(d.FrequencyFile)); err != nil {
		log.Errorf("Persisting learned words: %v", err)
		return
	}
	log.Infof("Persisted %d learned words", len(rt.completer.Learned()))
}

// describeLoadError adds a hint when the dictionary files are missing
func describeLoadError(err error) error {
	if errors.Is(err, dictionary.ErrStoreLoad) {
		return fmt.Errorf("%w (run `%s prepare` to build the dictionary files)", err, AppName)
	}
	return err
}
