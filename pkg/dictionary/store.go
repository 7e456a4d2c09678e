package dictionary

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/recomserve/internal/utils"
)

// ErrStoreLoad marks a missing or malformed dictionary file. The engine
// cannot run without its base dictionary, so callers treat it as fatal.
var ErrStoreLoad = errors.New("dictionary store load failed")

// frequencySnapshot is the on-disk form of a FrequencyTable
type frequencySnapshot struct {
	Assigned int                `msgpack:"assigned"`
	Scores   map[string]float64 `msgpack:"scores"`
}

// LoadVocabulary reads a vocabulary from a MessagePack array of strings or
// from a text file with one word per line (normalized on load).
func LoadVocabulary(path string) (*Vocabulary, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreLoad, err)
	}
	if err := ValidateFileFormat(path, format); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreLoad, err)
	}

	var words []string
	switch format {
	case FormatMsgpack:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreLoad, err)
		}
		if err := msgpack.Unmarshal(data, &words); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", ErrStoreLoad, path, err)
		}
	case FormatText:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreLoad, err)
		}
		defer f.Close()
		raw, err := ReadWordList(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrStoreLoad, path, err)
		}
		words = make([]string, len(raw))
		for i, w := range raw {
			words[i] = utils.NormalizeWord(w)
		}
	default:
		return nil, fmt.Errorf("%w: %s cannot hold a vocabulary", ErrStoreLoad, format)
	}

	v, err := NewVocabulary(words)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreLoad, path, err)
	}
	log.Debugf("Loaded vocabulary from %s: %d words", path, v.Len())
	return v, nil
}

// SaveVocabulary writes the vocabulary as a MessagePack array
func SaveVocabulary(path string, v *Vocabulary) error {
	data, err := msgpack.Marshal(v.Words())
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}
	return utils.WriteFileAtomic(path, data)
}

// LoadFrequency reads a frequency table snapshot
func LoadFrequency(path string) (*FrequencyTable, error) {
	if err := ValidateFileFormat(path, FormatMsgpack); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreLoad, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreLoad, err)
	}

	var snap frequencySnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStoreLoad, path, err)
	}
	for w, s := range snap.Scores {
		if !utils.IsAlphabetic(w) || w != utils.NormalizeWord(w) {
			return nil, fmt.Errorf("%w: %s: key %q is not a normalized alphabetic word", ErrStoreLoad, path, w)
		}
		if math.IsNaN(s) || s <= 0 || s > 1 {
			return nil, fmt.Errorf("%w: %s: score %v for %q out of range", ErrStoreLoad, path, s, w)
		}
	}

	ft := FrequencyTableFrom(snap.Scores)
	if snap.Assigned > ft.assigned {
		ft.assigned = snap.Assigned
	}
	log.Debugf("Loaded frequency table from %s: %d entries", path, ft.Len())
	return ft, nil
}

// SaveFrequency writes the table, including its rank counter, as MessagePack
func SaveFrequency(path string, ft *FrequencyTable) error {
	ft.mu.RLock()
	snap := frequencySnapshot{Assigned: ft.assigned, Scores: make(map[string]float64, len(ft.scores))}
	for w, s := range ft.scores {
		snap.Scores[w] = s
	}
	ft.mu.RUnlock()

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode frequency table: %w", err)
	}
	return utils.WriteFileAtomic(path, data)
}
