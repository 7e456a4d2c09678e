package dictionary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func TestVocabularyPositionsAreStable(t *testing.T) {
	v, err := NewVocabulary([]string{"ato", "atriz", "atual"})
	require.NoError(t, err)

	pos, ok := v.Position("atriz")
	require.True(t, ok)
	assert.Equal(t, 1, pos)

	pos, added := v.Add("atlas")
	assert.True(t, added)
	assert.Equal(t, 3, pos)

	pos, added = v.Add("ato")
	assert.False(t, added, "known word must not be appended twice")
	assert.Equal(t, 0, pos)

	pos, ok = v.Position("atlas")
	require.True(t, ok)
	assert.Equal(t, 3, pos)

	assert.Equal(t, []string{"ato", "atriz", "atual", "atlas"}, v.Words())
	assert.Equal(t, 4, v.Len())
}

func TestNewVocabularyRejectsMalformedEntries(t *testing.T) {
	testCases := []struct {
		words       []string
		description string
	}{
		{[]string{"ato", "ato"}, "duplicate"},
		{[]string{"Ato"}, "not lower case"},
		{[]string{"at0"}, "digit"},
		{[]string{""}, "empty word"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := NewVocabulary(tc.words)
			assert.Error(t, err)
		})
	}
}

func TestFrequencyTableRanks(t *testing.T) {
	ft := NewFrequencyTable()

	assert.Equal(t, 1.0, ft.RecordFirstSeen("ato"))
	assert.Equal(t, 0.5, ft.RecordFirstSeen("atriz"))
	assert.InDelta(t, 1.0/3, ft.RecordFirstSeen("atual"), 1e-12)

	assert.Greater(t, ft.Score("ato"), ft.Score("atriz"))
	assert.Greater(t, ft.Score("atriz"), ft.Score("atual"))

	assert.Equal(t, DefaultScore, ft.Score("ausente"))
	_, ok := ft.Lookup("ausente")
	assert.False(t, ok, "default score must not be persisted by a lookup")
	assert.Equal(t, 3, ft.Len())
}

func TestRecordFirstSeenIsIdempotent(t *testing.T) {
	ft := NewFrequencyTable()
	ft.RecordFirstSeen("ato")

	once := ft.RecordFirstSeen("atriz")
	twice := ft.RecordFirstSeen("atriz")

	assert.Equal(t, once, twice)
	assert.Equal(t, 2, ft.Len())
	assert.InDelta(t, 1.0/3, ft.RecordFirstSeen("atual"), 1e-12, "repeat must not consume a rank")
}

func TestRetainKeepsRankCounter(t *testing.T) {
	ft := FrequencyTableFrom(map[string]float64{"a": 1, "b": 0.5, "c": 1.0 / 3})

	dropped := ft.Retain(func(w string) bool { return w != "b" })

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, ft.Len())
	assert.Equal(t, 0.25, ft.RecordFirstSeen("d"), "new word ranks after every word ever recorded")
}

func TestVocabularyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocabulary.msgpack")

	v, err := NewVocabulary([]string{"ato", "atriz", "coração"})
	require.NoError(t, err)
	require.NoError(t, SaveVocabulary(path, v))

	loaded, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, v.Words(), loaded.Words())
}

func TestLoadVocabularyFromText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("Ato\n\n  atriz \natual\n"), 0644))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ato", "atriz", "atual"}, v.Words())
}

func TestFrequencyRoundTripIsExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frequency.msgpack")

	ft := NewFrequencyTable()
	for _, w := range []string{"de", "que", "não", "para", "com", "uma", "os"} {
		ft.RecordFirstSeen(w)
	}
	ft.Retain(func(w string) bool { return w != "que" })
	require.NoError(t, SaveFrequency(path, ft))

	loaded, err := LoadFrequency(path)
	require.NoError(t, err)
	assert.Equal(t, ft.Snapshot(), loaded.Snapshot())
	assert.Equal(t, ft.RecordFirstSeen("mais"), loaded.RecordFirstSeen("mais"))
}

func TestLoadFailuresWrapErrStoreLoad(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.msgpack")
	require.NoError(t, os.WriteFile(garbage, []byte{0xc1, 0xc1}, 0644))

	badScore := filepath.Join(dir, "bad.msgpack")
	data, err := msgpack.Marshal(&frequencySnapshot{Scores: map[string]float64{"ato": 2}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(badScore, data, 0644))

	dupVocab := filepath.Join(dir, "dup.msgpack")
	data, err = msgpack.Marshal([]string{"ato", "ato"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dupVocab, data, 0644))

	wrongExt := filepath.Join(dir, "vocabulary.bin")
	require.NoError(t, os.WriteFile(wrongExt, []byte("x"), 0644))

	testCases := []struct {
		load        func() error
		description string
	}{
		{func() error { _, err := LoadVocabulary(filepath.Join(dir, "missing.msgpack")); return err }, "missing vocabulary"},
		{func() error { _, err := LoadFrequency(filepath.Join(dir, "missing.msgpack")); return err }, "missing frequency"},
		{func() error { _, err := LoadVocabulary(garbage); return err }, "garbage vocabulary"},
		{func() error { _, err := LoadFrequency(garbage); return err }, "garbage frequency"},
		{func() error { _, err := LoadFrequency(badScore); return err }, "score out of range"},
		{func() error { _, err := LoadVocabulary(dupVocab); return err }, "duplicate vocabulary entry"},
		{func() error { _, err := LoadVocabulary(wrongExt); return err }, "unknown extension"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.ErrorIs(t, tc.load(), ErrStoreLoad)
		})
	}
}

func TestBuildFrequencyFromLexicon(t *testing.T) {
	lexicon := strings.Join([]string{
		"ortografia\tclasse\tfrequencia",
		"de\tPREP\t100",
		"",
		"Que\tPRON\t90",
		"2020\tNUM\t80",
		"de\tPREP\t70",
		"anti-herói\tN\t60",
		"não\tADV\t50",
	}, "\n")

	ft, stats, err := BuildFrequency(strings.NewReader(lexicon))
	require.NoError(t, err)

	assert.Equal(t, LexiconStats{Lines: 6, Accepted: 3, Skipped: 3}, stats)
	assert.Equal(t, []string{"de", "que", "não"}, RankedWords(ft))
	assert.Equal(t, 1.0, ft.Score("de"))
	assert.Equal(t, 0.5, ft.Score("que"))
}

func TestBuildFrequencyLatin1(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteString("ortografia\n")
	raw.Write([]byte{'a', 0xe7, 0xe3, 'o', '\t', '1', '\n'}) // "ação" in ISO-8859-1

	r, err := DecodeReader(&raw, EncodingLatin1)
	require.NoError(t, err)
	ft, _, err := BuildFrequency(r)
	require.NoError(t, err)

	_, ok := ft.Lookup("ação")
	assert.True(t, ok)

	_, err = DecodeReader(&raw, "ebcdic")
	assert.Error(t, err)
}

func TestBuildVocabulary(t *testing.T) {
	candidates := []string{"de", "Casa", "casa", "##ção", "tempo", "ano", "vida", "mundo"}

	v := BuildVocabulary(candidates, 3, 4)

	assert.Equal(t, []string{"casa", "tempo", "ano", "vida"}, v.Words())
}

func TestDetectFileFormat(t *testing.T) {
	testCases := []struct {
		name     string
		expected FileFormat
	}{
		{"vocabulary.msgpack", FormatMsgpack},
		{"words.TXT", FormatText},
		{"lexporbr.tsv", FormatLexicon},
	}
	for _, tc := range testCases {
		format, err := DetectFileFormat(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, format, tc.name)
	}

	_, err := DetectFileFormat("dict_0001.bin")
	assert.Error(t, err)
}
