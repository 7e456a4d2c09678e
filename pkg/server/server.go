package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/recomserve/internal/logger"
	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/config"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

// Server handles the IPC for word completions
type Server struct {
	completer suggest.ICompleter
	config    *config.Config
	decoder   *msgpack.Decoder
	writer    *bufio.Writer
	logger    *log.Logger
	requests  int
}

// NewServer creates a completion server using stdin/stdout for IPC
func NewServer(completer suggest.ICompleter, cfg *config.Config) *Server {
	return NewServerWithIO(completer, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a completion server on the given streams
func NewServerWithIO(completer suggest.ICompleter, cfg *config.Config, in io.Reader, out io.Writer) *Server {
	return &Server{
		completer: completer,
		config:    cfg,
		decoder:   msgpack.NewDecoder(bufio.NewReader(in)),
		writer:    bufio.NewWriter(out),
		logger:    logger.New("ipc"),
	}
}

// Start sends a ready message, then serves requests until the input ends.
// It returns nil on a clean EOF.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting IPC server")
	if err := s.send(HealthResponse{ID: "ready", Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			s.logger.Errorf("Reading request: %v", err)
			_ = s.sendError("", "malformed msgpack stream", 400)
			return fmt.Errorf("read request: %w", err)
		}
		s.requests++
		s.handleMessage(ctx, raw)
	}
}

// handleMessage routes one decoded message
func (s *Server) handleMessage(ctx context.Context, raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Debugf("Unmarshaling request: %v", err)
		s.replyError("", "invalid request", 400)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	switch req.Action {
	case "", ActionComplete:
		s.handleComplete(ctx, CompletionRequest{ID: req.ID, Prefix: req.Prefix, Limit: req.Limit, Mode: req.Mode})
	case ActionFrequency:
		score, found := s.completer.Frequency(req.Word)
		s.reply(FrequencyResponse{ID: req.ID, Word: utils.NormalizeWord(req.Word), Score: score, Found: found})
	case ActionStats:
		s.reply(StatsResponse{ID: req.ID, Stats: s.completer.Stats()})
	case ActionHealth:
		s.reply(HealthResponse{ID: req.ID, Status: "ok"})
	default:
		s.replyError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

// handleComplete validates the prefix and limit against the server config,
// runs the requested mode and ranks the result by position.
func (s *Server) handleComplete(ctx context.Context, req CompletionRequest) {
	if req.Prefix == "" {
		s.replyError(req.ID, "missing prefix", 400)
		return
	}
	n := utils.RuneLen(req.Prefix)
	if n < s.config.Server.MinPrefix {
		s.replyError(req.ID, fmt.Sprintf("prefix must be at least %d characters", s.config.Server.MinPrefix), 400)
		return
	}
	if n > s.config.Server.MaxPrefix {
		s.replyError(req.ID, fmt.Sprintf("prefix exceeds maximum length of %d characters", s.config.Server.MaxPrefix), 400)
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = s.config.Server.DefaultLimit
	}
	if limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}

	start := time.Now()
	var words []string
	switch req.Mode {
	case "", ModeHybrid:
		words = s.completer.Complete(ctx, req.Prefix, limit)
	case ModeDictionary:
		words = s.completer.Dictionary(req.Prefix, limit)
	case ModeGenerated:
		var err error
		words, err = s.completer.Generated(ctx, req.Prefix, limit)
		if err != nil {
			if errors.Is(err, suggest.ErrInvalidInput) {
				s.replyError(req.ID, "prefix must be alphabetic", 400)
				return
			}
			s.logger.Warn("Generated completion failed", "id", req.ID, "err", err)
			s.replyError(req.ID, "generator unavailable", 503)
			return
		}
	default:
		s.replyError(req.ID, fmt.Sprintf("unknown mode: %s", req.Mode), 400)
		return
	}
	elapsed := time.Since(start)

	ranks := utils.CreateRankList(len(words))
	suggestions := make([]CompletionSuggestion, len(words))
	for i, w := range words {
		suggestions[i] = CompletionSuggestion{Word: w, Rank: ranks[i]}
	}

	s.logger.Debugf("Request %s: %d suggestions for %q (%s) in %v", req.ID, len(words), req.Prefix, req.Mode, elapsed)
	s.reply(CompletionResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) reply(response any) {
	if err := s.send(response); err != nil {
		s.logger.Errorf("Writing response: %v", err)
	}
}

func (s *Server) replyError(id, message string, code int) {
	if err := s.sendError(id, message, code); err != nil {
		s.logger.Errorf("Writing error response: %v", err)
	}
}

// send encodes one response and flushes it
func (s *Server) send(response any) error {
	data, err := msgpack.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(CompletionError{ID: id, Error: message, Code: code})
}
