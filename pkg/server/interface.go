/*
Package server implements msgpack IPC for the completion engine.

Clients write msgpack maps to stdin, back to back with no framing, and read
one msgpack map per request from stdout. Every message carries an "id"; the
server assigns one when it is missing. Logs go to stderr.

# IPC

Completion requests use this structure, "m" selecting the mode (dict,
hybrid or gen, hybrid by default):

	{"id": "req_001", "p": "at", "l": 5, "m": "hybrid"}

The server responds with suggestions in result order, rank 1 first, and
the time taken in microseconds:

	{"id": "req_001", "s": [{"w": "atlas", "r": 1}, {"w": "ato", "r": 2}], "c": 2, "t": 145}

Other operations are selected with "action":

	{"id": "freq_001", "action": "frequency", "word": "ato"}
	{"id": "stats_001", "action": "stats"}
	{"id": "health_001", "action": "health"}

Failures answer with a CompletionError:

	{"id": "req_002", "e": "prefix too long", "c": 400}

A message that is valid msgpack but not a request gets an error and the
loop continues; bytes that are not msgpack end the session.
*/
package server

// Request actions
const (
	ActionComplete  = "complete"
	ActionFrequency = "frequency"
	ActionStats     = "stats"
	ActionHealth    = "health"
)

// Completion modes
const (
	ModeDictionary = "dict"
	ModeHybrid     = "hybrid"
	ModeGenerated  = "gen"
)

// Request is any incoming message. Completion requests leave Action empty.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`
	Prefix string `msgpack:"p,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
	Mode   string `msgpack:"m,omitempty"`
	Word   string `msgpack:"word,omitempty"`
}

// CompletionRequest - minimal completion request
type CompletionRequest struct {
	ID     string `msgpack:"id"`
	Prefix string `msgpack:"p"`
	Limit  int    `msgpack:"l,omitempty"`
	Mode   string `msgpack:"m,omitempty"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// FrequencyResponse reports a word's stored score
type FrequencyResponse struct {
	ID    string  `msgpack:"id"`
	Word  string  `msgpack:"word"`
	Score float64 `msgpack:"score"`
	Found bool    `msgpack:"found"`
}

// StatsResponse carries the engine counters
type StatsResponse struct {
	ID    string         `msgpack:"id"`
	Stats map[string]int `msgpack:"stats"`
}

// HealthResponse answers health checks and the ready signal
type HealthResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
