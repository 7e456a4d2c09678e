package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

type suggestionsResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

type frequencyResponse struct {
	Word      string  `json:"word"`
	Frequency float64 `json:"frequency"`
}

type embeddingResponse struct {
	Word      string    `json:"word"`
	Embedding []float32 `json:"embedding"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Stats  map[string]int `json:"stats"`
}

// GET /suggestions?prefix=&limit=
func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	prefix, limit, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Prefix: prefix, Suggestions: s.completer.Dictionary(prefix, limit)})
}

// GET /suggestions/hybrid?prefix=&limit=
func (s *Server) handleHybrid(w http.ResponseWriter, r *http.Request) {
	prefix, limit, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Prefix: prefix, Suggestions: s.completer.Complete(r.Context(), prefix, limit)})
}

// GET /suggestions/generated?prefix=&limit=
func (s *Server) handleGenerated(w http.ResponseWriter, r *http.Request) {
	prefix, limit, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	words, err := s.completer.Generated(r.Context(), prefix, limit)
	if err != nil {
		if errors.Is(err, suggest.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "prefix must be alphabetic")
			return
		}
		s.logger.Warn("Generated suggestions failed", "prefix", prefix, "err", err)
		writeError(w, http.StatusServiceUnavailable, "generator unavailable")
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Prefix: prefix, Suggestions: words})
}

// GET /frequency?word=
func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	if word == "" {
		writeError(w, http.StatusBadRequest, "missing 'word' parameter")
		return
	}
	score, found := s.completer.Frequency(word)
	if !found {
		writeError(w, http.StatusNotFound, "word not found")
		return
	}
	writeJSON(w, http.StatusOK, frequencyResponse{Word: utils.NormalizeWord(word), Frequency: score})
}

// GET /embedding?word=
func (s *Server) handleEmbedding(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	if word == "" {
		writeError(w, http.StatusBadRequest, "missing 'word' parameter")
		return
	}
	if s.embeddings == nil {
		writeError(w, http.StatusNotFound, "embeddings not loaded")
		return
	}
	vec, found := s.embeddings.Lookup(word)
	if !found {
		writeError(w, http.StatusNotFound, "word not found")
		return
	}
	writeJSON(w, http.StatusOK, embeddingResponse{Word: utils.NormalizeWord(word), Embedding: vec})
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Stats: s.completer.Stats()})
}

// parseQuery reads prefix and limit, writing a 400 when either is unusable.
// A missing or non-positive limit takes the default; large ones are capped.
func (s *Server) parseQuery(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	q := r.URL.Query()
	prefix := q.Get("prefix")

	n := utils.RuneLen(prefix)
	if n < s.cfg.MinPrefix {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("prefix must be at least %d characters", s.cfg.MinPrefix))
		return "", 0, false
	}
	if n > s.cfg.MaxPrefix {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("prefix exceeds maximum length of %d characters", s.cfg.MaxPrefix))
		return "", 0, false
	}

	limit := s.cfg.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return "", 0, false
		}
		if parsed > 0 {
			limit = parsed
		}
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	return prefix, limit, true
}
