// Package cli handles cmd line input and suggestions for debugging and trying out the engine
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/recomserve/internal/logger"
	"github.com/bastiangx/recomserve/internal/utils"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

// Completion modes
const (
	ModeDictionary = "dict"
	ModeHybrid     = "hybrid"
	ModeGenerated  = "gen"
)

var (
	wordStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	learnedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// learner is implemented by completers that report generator-learned words
type learner interface {
	Learned() []string
}

// InputHandler reads prefixes line by line and prints suggestions with
// their scores. Lines starting with ':' are commands:
//
//	:mode dict|hybrid|gen   switch completion mode
//	:stats                  print engine counters
//	:learned                list words learned this session
type InputHandler struct {
	completer       suggest.ICompleter
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	mode            string
	out             *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(completer suggest.ICompleter, minLength, maxLength, limit int, mode string, out io.Writer) *InputHandler {
	return &InputHandler{
		completer:       completer,
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    limit,
		mode:            mode,
		out:             logger.NewWithConfig(out, "", log.GetLevel(), false, false, log.TextFormatter),
	}
}

// Start prompts for input until in is exhausted or ctx is cancelled.
// A clean end of input returns nil.
func (h *InputHandler) Start(ctx context.Context, in io.Reader) error {
	h.out.Print("recomserve CLI")
	h.out.Print("type a prefix and press Enter to see suggestions (Ctrl+D to exit, :mode dict|hybrid|gen to switch)")

	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		h.out.Print("> ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			h.handleLine(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleLine(ctx context.Context, line string) {
	if strings.HasPrefix(line, ":") {
		h.handleCommand(line)
		return
	}
	h.handleInput(ctx, line)
}

func (h *InputHandler) handleCommand(line string) {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "mode":
		if len(fields) != 2 || !validMode(fields[1]) {
			h.out.Errorf("Usage: :mode %s|%s|%s", ModeDictionary, ModeHybrid, ModeGenerated)
			return
		}
		h.mode = fields[1]
		h.out.Printf("Mode set to %s", h.mode)
	case "stats":
		for k, v := range h.completer.Stats() {
			h.out.Printf("%-18s %d", k, v)
		}
	case "learned":
		l, ok := h.completer.(learner)
		if !ok {
			h.out.Warn("Completer does not track learned words")
			return
		}
		words := l.Learned()
		h.out.Printf("%d words learned this session", len(words))
		for _, w := range words {
			h.out.Print(learnedStyle.Render(w))
		}
	default:
		h.out.Errorf("Unknown command: %s", fields[0])
	}
}

// handleInput validates the prefix's length and content, asks the
// completer in the current mode and prints each suggestion with its score.
func (h *InputHandler) handleInput(ctx context.Context, prefix string) {
	n := utils.RuneLen(prefix)
	if n < h.minPrefixLength {
		h.out.Errorf("Prefix too short: %s", prefix)
		return
	}
	if n > h.maxPrefixLength {
		h.out.Errorf("Prefix too long: %s", prefix)
		return
	}
	if !utils.IsValidInput(prefix) {
		h.out.Warnf("Prefix must be alphabetic: '%s'", prefix)
		return
	}
	if utils.IsRepetitive(utils.NormalizeWord(prefix)) {
		h.out.Debugf("Repetitive prefix '%s', expect few results", prefix)
	}

	start := time.Now()
	var suggestions []string
	switch h.mode {
	case ModeDictionary:
		suggestions = h.completer.Dictionary(prefix, h.suggestLimit)
	case ModeGenerated:
		var err error
		suggestions, err = h.completer.Generated(ctx, prefix, h.suggestLimit)
		if err != nil {
			h.out.Errorf("Generator failed: %v", err)
			return
		}
	default:
		suggestions = h.completer.Complete(ctx, prefix, h.suggestLimit)
	}
	elapsed := time.Since(start)
	h.out.Debugf("Took [ %v ] for prefix '%s'", elapsed, prefix)

	if len(suggestions) == 0 {
		h.out.Warnf("No suggestions found for prefix: '%s'", prefix)
		return
	}

	h.out.Printf("Found %d suggestions for prefix '%s' (%s):", len(suggestions), prefix, h.mode)
	for i, w := range suggestions {
		score := "-"
		if s, ok := h.completer.Frequency(w); ok {
			score = fmt.Sprintf("%.6f", s)
		}
		h.out.Printf("%2d. %-40s (score: %s)", i+1, wordStyle.Render(w), score)
	}
}

func validMode(mode string) bool {
	return mode == ModeDictionary || mode == ModeHybrid || mode == ModeGenerated
}
