// Package embedding stores one vector per vocabulary word and computes
// them through an OpenAI-compatible embeddings API.
package embedding

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/dictionary"
)

// ErrDimensionMismatch is a vector whose length differs from the store's
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Store holds vectors aligned with vocabulary positions: Vectors[i]
// belongs to the word at position i.
type Store struct {
	Dim     int         `msgpack:"dim"`
	Vectors [][]float32 `msgpack:"vectors"`
}

// Vector returns the vector at pos
func (s *Store) Vector(pos int) ([]float32, bool) {
	if pos < 0 || pos >= len(s.Vectors) {
		return nil, false
	}
	return s.Vectors[pos], true
}

func (s *Store) Len() int {
	return len(s.Vectors)
}

func (s *Store) validate() error {
	for i, v := range s.Vectors {
		if len(v) != s.Dim {
			return fmt.Errorf("%w: vector %d has %d values, want %d", ErrDimensionMismatch, i, len(v), s.Dim)
		}
	}
	return nil
}

// LoadStore reads a MessagePack embeddings file
func LoadStore(path string) (*Store, error) {
	if err := dictionary.ValidateFileFormat(path, dictionary.FormatMsgpack); err != nil {
		return nil, fmt.Errorf("%w: %w", dictionary.ErrStoreLoad, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dictionary.ErrStoreLoad, err)
	}

	var s Store
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", dictionary.ErrStoreLoad, path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", dictionary.ErrStoreLoad, path, err)
	}
	log.Debugf("Loaded %d embeddings of dimension %d from %s", s.Len(), s.Dim, path)
	return &s, nil
}

// SaveStore writes the store as MessagePack
func SaveStore(path string, s *Store) error {
	if err := s.validate(); err != nil {
		return err
	}
	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode embeddings: %w", err)
	}
	return utils.WriteFileAtomic(path, data)
}

// Index looks up vectors by word
type Index struct {
	vocab *dictionary.Vocabulary
	store *Store
}

// NewIndex pairs a vocabulary with its store. The store may cover fewer
// words than the vocabulary, e.g. after words were learned at runtime.
func NewIndex(vocab *dictionary.Vocabulary, store *Store) (*Index, error) {
	if store.Len() > vocab.Len() {
		return nil, fmt.Errorf("%d embeddings for a vocabulary of %d words", store.Len(), vocab.Len())
	}
	if store.Len() < vocab.Len() {
		log.Warnf("Embeddings cover %d of %d vocabulary words", store.Len(), vocab.Len())
	}
	return &Index{vocab: vocab, store: store}, nil
}

// Lookup returns the vector for word after normalization
func (ix *Index) Lookup(word string) ([]float32, bool) {
	pos, ok := ix.vocab.Position(utils.NormalizeWord(word))
	if !ok {
		return nil, false
	}
	return ix.store.Vector(pos)
}

func (ix *Index) Dim() int {
	return ix.store.Dim
}
