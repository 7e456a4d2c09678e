package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding/charmap"

	"github.com/bastiangx/recomserve/internal/utils"
)

// Supported lexicon encodings
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1"
)

// LexiconStats summarizes one BuildFrequency run
type LexiconStats struct {
	Lines    int
	Accepted int
	Skipped  int
}

// DecodeReader wraps r so it yields UTF-8 for the given source encoding
func DecodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf8":
		return r, nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported lexicon encoding %q", encoding)
	}
}

// BuildFrequency reads a tab separated lexicon and ranks its words in
// order of first appearance. The first line is a header and is skipped.
// Only the first column is used; entries that are not purely alphabetic
// after normalization are skipped, as are repeats.
func BuildFrequency(r io.Reader) (*FrequencyTable, LexiconStats, error) {
	ft := NewFrequencyTable()
	var stats LexiconStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		column, _, _ := strings.Cut(line, "\t")
		word := utils.NormalizeWord(strings.TrimSpace(column))
		if !utils.IsAlphabetic(word) {
			stats.Skipped++
			continue
		}
		if _, seen := ft.Lookup(word); seen {
			stats.Skipped++
			continue
		}
		ft.RecordFirstSeen(word)
		stats.Accepted++
	}
	if err := scanner.Err(); err != nil {
		return ft, stats, fmt.Errorf("read lexicon: %w", err)
	}

	log.Debugf("Lexicon processed: %d lines, %d words ranked, %d skipped", stats.Lines, stats.Accepted, stats.Skipped)
	return ft, stats, nil
}

// ReadWordList returns the non-empty, trimmed lines of r
func ReadWordList(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words = append(words, w)
		}
	}
	return words, scanner.Err()
}

// BuildVocabulary normalizes candidate words and keeps alphabetic ones with
// at least minLen characters, dropping repeats, until maxWords are kept.
// maxWords <= 0 keeps everything.
func BuildVocabulary(candidates []string, minLen, maxWords int) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int)}
	for _, raw := range candidates {
		if maxWords > 0 && len(v.words) >= maxWords {
			break
		}
		w := utils.NormalizeWord(strings.TrimSpace(raw))
		if !utils.IsAlphabetic(w) || utils.RuneLen(w) < minLen {
			continue
		}
		v.Add(w)
	}
	return v
}

// RankedWords lists the table's words from highest to lowest score,
// ties in lexical order.
func RankedWords(ft *FrequencyTable) []string {
	scores := ft.Snapshot()
	words := make([]string, 0, len(scores))
	for w := range scores {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if scores[words[i]] != scores[words[j]] {
			return scores[words[i]] > scores[words[j]]
		}
		return words[i] < words[j]
	})
	return words
}
