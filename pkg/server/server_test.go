package server

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/recomserve/pkg/config"
	"github.com/bastiangx/recomserve/pkg/dictionary"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func newTestCompleter(t *testing.T, gen suggest.Generator) *suggest.Completer {
	t.Helper()
	words := []string{"ato", "atriz", "atual", "casa"}
	vocab, err := dictionary.NewVocabulary(words)
	require.NoError(t, err)
	freqs := dictionary.NewFrequencyTable()
	for _, w := range words {
		freqs.RecordFirstSeen(w)
	}
	return suggest.NewCompleter(vocab, freqs, gen, suggest.Options{})
}

var lasGenerator = suggest.GeneratorFunc(func(ctx context.Context, prefix string, count int) ([]string, error) {
	return []string{"las"}, nil
})

// runSession feeds the messages to a server and returns its output decoder,
// positioned after the ready message.
func runSession(t *testing.T, completer suggest.ICompleter, messages ...any) (*msgpack.Decoder, error) {
	t.Helper()
	var in bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, m := range messages {
		if raw, ok := m.([]byte); ok {
			in.Write(raw)
			continue
		}
		require.NoError(t, enc.Encode(m))
	}

	var out bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Server.MaxLimit = 3
	cfg.Server.DefaultLimit = 2
	cfg.Server.MaxPrefix = 10

	err := NewServerWithIO(completer, cfg, &in, &out).Start(context.Background())

	dec := msgpack.NewDecoder(&out)
	var ready HealthResponse
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	return dec, err
}

func TestCompletionModes(t *testing.T) {
	c := newTestCompleter(t, lasGenerator)
	dec, err := runSession(t, c,
		Request{ID: "dict", Prefix: "at", Limit: 3, Mode: ModeDictionary},
		Request{ID: "hybrid", Prefix: "AT", Limit: 3},
		Request{ID: "gen", Prefix: "at", Limit: 3, Mode: ModeGenerated},
	)
	require.NoError(t, err)

	expected := []struct {
		id    string
		words []string
	}{
		{"dict", []string{"ato", "atriz", "atual"}},
		{"hybrid", []string{"ato", "atriz", "atual"}},
		{"gen", []string{"atlas"}},
	}
	for _, e := range expected {
		var resp CompletionResponse
		require.NoError(t, dec.Decode(&resp))
		assert.Equal(t, e.id, resp.ID)
		assert.Equal(t, len(e.words), resp.Count)
		for i, s := range resp.Suggestions {
			assert.Equal(t, e.words[i], s.Word)
			assert.Equal(t, uint16(i+1), s.Rank)
		}
	}
}

func TestCompletionLimits(t *testing.T) {
	c := newTestCompleter(t, nil)
	dec, err := runSession(t, c,
		CompletionRequest{ID: "default", Prefix: "at"},
		CompletionRequest{ID: "clamped", Prefix: "at", Limit: 50, Mode: ModeDictionary},
	)
	require.NoError(t, err)

	var resp CompletionResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, 2, resp.Count, "default limit")
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, 3, resp.Count, "max limit")
}

func TestCompletionErrors(t *testing.T) {
	failing := suggest.GeneratorFunc(func(ctx context.Context, prefix string, count int) ([]string, error) {
		return nil, errors.New("model crashed")
	})
	c := newTestCompleter(t, failing)

	dec, err := runSession(t, c,
		Request{ID: "empty"},
		Request{ID: "long", Prefix: "abcdefghijklmnop"},
		Request{ID: "mode", Prefix: "at", Mode: "fuzzy"},
		Request{ID: "gen", Prefix: "at", Mode: ModeGenerated},
		Request{ID: "digits", Prefix: "12", Mode: ModeGenerated},
		Request{ID: "action", Action: "reload"},
	)
	require.NoError(t, err)

	expected := map[string]int{"empty": 400, "long": 400, "mode": 400, "gen": 503, "digits": 400, "action": 400}
	for range expected {
		var resp CompletionError
		require.NoError(t, dec.Decode(&resp))
		assert.Equal(t, expected[resp.ID], resp.Code, resp.ID)
		assert.NotContains(t, resp.Error, "model crashed")
	}
}

func TestActions(t *testing.T) {
	c := newTestCompleter(t, nil)
	dec, err := runSession(t, c,
		Request{ID: "f1", Action: ActionFrequency, Word: "Atriz"},
		Request{ID: "f2", Action: ActionFrequency, Word: "xyz"},
		Request{ID: "s", Action: ActionStats},
		Request{ID: "h", Action: ActionHealth},
	)
	require.NoError(t, err)

	var freq FrequencyResponse
	require.NoError(t, dec.Decode(&freq))
	assert.Equal(t, FrequencyResponse{ID: "f1", Word: "atriz", Score: 0.5, Found: true}, freq)
	require.NoError(t, dec.Decode(&freq))
	assert.False(t, freq.Found)

	var stats StatsResponse
	require.NoError(t, dec.Decode(&stats))
	assert.Equal(t, 4, stats.Stats["words"])

	var health HealthResponse
	require.NoError(t, dec.Decode(&health))
	assert.Equal(t, HealthResponse{ID: "h", Status: "ok"}, health)
}

func TestMissingIDIsAssigned(t *testing.T) {
	c := newTestCompleter(t, nil)
	dec, err := runSession(t, c, map[string]any{"p": "ca", "m": "dict"})
	require.NoError(t, err)

	var resp CompletionResponse
	require.NoError(t, dec.Decode(&resp))
	_, parseErr := uuid.Parse(resp.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "casa", resp.Suggestions[0].Word)
}

func TestMalformedMessages(t *testing.T) {
	c := newTestCompleter(t, nil)

	t.Run("wrong shape continues", func(t *testing.T) {
		dec, err := runSession(t, c, "just a string", Request{ID: "after", Action: ActionHealth})
		require.NoError(t, err)

		var errResp CompletionError
		require.NoError(t, dec.Decode(&errResp))
		assert.Equal(t, 400, errResp.Code)

		var health HealthResponse
		require.NoError(t, dec.Decode(&health))
		assert.Equal(t, "after", health.ID)
	})

	t.Run("broken stream stops", func(t *testing.T) {
		dec, err := runSession(t, c, []byte{0xc1})
		assert.Error(t, err)

		var errResp CompletionError
		require.NoError(t, dec.Decode(&errResp))
		assert.Equal(t, 400, errResp.Code)
	})
}
