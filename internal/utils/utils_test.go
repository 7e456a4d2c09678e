package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWord(t *testing.T) {
	testCases := []struct {
		input       string
		expected    string
		description string
	}{
		{"ATO", "ato", "upper case folded"},
		{"Ação", "ação", "accented capital folded"},
		{"ac\u0327a\u0303o", "ação", "decomposed marks composed to NFC"},
		{"", "", "empty stays empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeWord(tc.input))
		})
	}
}

func TestIsAlphabetic(t *testing.T) {
	testCases := []struct {
		input       string
		expected    bool
		description string
	}{
		{"atriz", true, "plain ascii word"},
		{"coração", true, "accented letters"},
		{"", false, "empty"},
		{"at1", false, "digit"},
		{"at las", false, "whitespace"},
		{"at-las", false, "punctuation"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsAlphabetic(tc.input))
		})
	}
}

func TestIsValidInput(t *testing.T) {
	assert.True(t, IsValidInput("AT"))
	assert.False(t, IsValidInput("a t"))
	assert.False(t, IsValidInput("123"))
	assert.False(t, IsValidInput(""))
}

func TestIsRepetitive(t *testing.T) {
	assert.True(t, IsRepetitive("aaaa"))
	assert.False(t, IsRepetitive("aa"))
	assert.False(t, IsRepetitive("aab"))
}

func TestSuggestionFilter(t *testing.T) {
	f := NewSuggestionFilter("ato")
	assert.False(t, f.ShouldInclude("ato"))
	assert.True(t, f.ShouldInclude("atlas"))
	assert.False(t, f.ShouldInclude("atlas"))
	assert.True(t, f.Seen("atlas"))
	assert.Equal(t, []string{"b", "a", "c"}, Dedupe([]string{"b", "a", "b", "c", "a"}))
}

func TestCreateRankList(t *testing.T) {
	assert.Equal(t, []uint16{1, 2, 3}, CreateRankList(3))
	assert.Empty(t, CreateRankList(0))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vocabulary.msgpack")

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestExtractors(t *testing.T) {
	data := map[string]any{"n": int64(3), "f": 0.5, "i": int64(1), "s": "x", "b": true}

	n, ok := ExtractInt64(data, "n")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	f, ok := ExtractFloat(data, "f")
	assert.True(t, ok)
	assert.Equal(t, 0.5, f)

	f, ok = ExtractFloat(data, "i")
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)

	s, ok := ExtractString(data, "s")
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, ok = ExtractBool(data, "missing")
	assert.False(t, ok)
}
