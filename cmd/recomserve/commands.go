package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/recomserve/internal/cli"
	"github.com/bastiangx/recomserve/internal/httpapi"
	"github.com/bastiangx/recomserve/internal/logger"
	"github.com/bastiangx/recomserve/pkg/config"
	"github.com/bastiangx/recomserve/pkg/embedding"
	"github.com/bastiangx/recomserve/pkg/pipeline"
	"github.com/bastiangx/recomserve/pkg/server"
)

var (
	serveAddr string

	cliLimit  int
	cliMinLen int
	cliMaxLen int
	cliMode   string

	prepareForce    bool
	prepareParallel int
	prepareBatch    int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")

	defaults := config.DefaultConfig().CLI
	cliCmd.Flags().IntVar(&cliLimit, "limit", 0, fmt.Sprintf("Number of suggestions to return (config default %d)", defaults.DefaultLimit))
	cliCmd.Flags().IntVar(&cliMinLen, "prmin", 0, "Minimum prefix length for suggestions")
	cliCmd.Flags().IntVar(&cliMaxLen, "prmax", 0, "Maximum prefix length for suggestions")
	cliCmd.Flags().StringVar(&cliMode, "mode", "", "Completion mode: dict, hybrid or gen")

	prepareCmd.Flags().BoolVar(&prepareForce, "force", false, "Rebuild files that already exist")
	prepareCmd.Flags().IntVar(&prepareParallel, "parallel", 2, "Concurrent embedding requests")
	prepareCmd.Flags().IntVar(&prepareBatch, "batch", embedding.DefaultBatchSize, "Words per embedding request")
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve completions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return describeLoadError(err)
		}
		if serveAddr != "" {
			rt.cfg.Server.Addr = serveAddr
		}

		ctx, stop := signalContext()
		defer stop()

		var embeddings httpapi.EmbeddingLookup
		if rt.embeddings != nil {
			embeddings = rt.embeddings
		}
		srv := httpapi.NewServer(rt.completer, embeddings, rt.cfg.Server, logger.New("http"))
		showStartupInfo(rt, "http "+rt.cfg.Server.Addr)

		err = srv.Run(ctx)
		rt.persist()
		return err
	},
}

var ipcCmd = &cobra.Command{
	Use:   "ipc",
	Short: "Serve completions as MessagePack over stdin/stdout",
	RunE:  runIPC,
}

func runIPC(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return describeLoadError(err)
	}
	ctx, stop := signalContext()
	defer stop()

	showStartupInfo(rt, "ipc")
	err = server.NewServer(rt.completer, rt.cfg).Start(ctx)
	rt.persist()
	return err
}

// CLI would be mainly used for testing and dbg purposes.
var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Try completions interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return describeLoadError(err)
		}
		c := rt.cfg.CLI
		limit, minLen, maxLen, mode := c.DefaultLimit, c.DefaultMinLen, c.DefaultMaxLen, c.DefaultMode
		if cliLimit > 0 {
			limit = cliLimit
		}
		if cliMinLen > 0 {
			minLen = cliMinLen
		}
		if cliMaxLen > 0 {
			maxLen = cliMaxLen
		}
		if cliMode != "" {
			mode = cliMode
		}
		log.Debug("Input info:", "minPrefix", minLen, "maxPrefix", maxLen, "limit", limit, "mode", mode)

		ctx, stop := signalContext()
		defer stop()

		h := cli.NewInputHandler(rt.completer, minLen, maxLen, limit, mode, os.Stdout)
		err = h.Start(ctx, os.Stdin)
		rt.persist()
		return err
	},
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the frequency table, vocabulary and embeddings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !debugMode {
			log.SetLevel(log.InfoLevel)
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		var embedder embedding.Embedder
		fb := cfg.Fallback
		if fb.Provider == config.ProviderOpenAI && fb.EmbeddingModel != "" && fb.APIKey() != "" {
			embedder = embedding.NewOpenAIEmbedder(fb.APIKey(), fb.BaseURL, fb.EmbeddingModel)
		}

		ctx, stop := signalContext()
		defer stop()

		report, err := pipeline.Run(ctx, pipeline.Options{
			Dict:      cfg.Dict,
			Force:     prepareForce,
			Embedder:  embedder,
			BatchSize: prepareBatch,
			Parallel:  prepareParallel,
		})
		if err != nil {
			return err
		}
		log.Info("Dictionary ready", "dir", cfg.Dict.DataDir, "words", report.Words)
		return nil
	},
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(rt *app, frontend string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	stats := rt.completer.Stats()
	log.Info("recomserve ready",
		"version", Version,
		"pid", os.Getpid(),
		"frontend", frontend,
		"words", stats["words"],
		"provider", rt.cfg.Fallback.Provider,
		"config", rt.cfgPath,
		"data", rt.cfg.Dict.DataDir)
}
