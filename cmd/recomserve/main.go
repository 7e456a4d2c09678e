// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the recomserve completion server, its interactive
CLI and the dictionary preparation pipeline.

recomserve completes word prefixes from a ranked dictionary held in a
patricia trie. When asked for hybrid suggestions it also queries a
generative model for continuations; accepted generated words are learned
into the dictionary and served as ordinary candidates afterwards.

# Usage

Prepare the dictionary files from a lexicon:

	recomserve prepare --data ./data

Serve completions over HTTP:

	recomserve serve --addr :8000

	GET /suggestions?prefix=at&limit=5
	GET /suggestions/hybrid?prefix=at&limit=5

Serve completions as MessagePack over stdin/stdout (the default command):

	recomserve ipc

	{"id": "req1", "p": "at", "l": 5, "m": "hybrid"}
	{"id": "req1", "s": [{"w": "ato", "r": 1}], "c": 1, "t": 145}

Try completions interactively:

	recomserve cli --mode hybrid --limit 10

# Configuration

Runtime configuration is read from config.toml in the user config
directory, created with defaults when missing, or from --config:

	[server]
	addr = ":8000"
	max_limit = 64

	[dict]
	data_dir = "data"
	max_words = 3000

	[fallback]
	provider = "openai"
	model = "gpt-4o-mini"
	timeout_ms = 5000

With provider "none" the engine only serves dictionary candidates and
hybrid requests degrade to them.

Logs always go to stderr; stdout belongs to the IPC protocol.
*/
package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	AppName = "recomserve"
	gh      = "https://github.com/bastiangx/recomserve"
)

// Global flags
var (
	configPath string
	dataDir    string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:           AppName,
	Short:         "Prefix completion with a generative fallback",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			log.SetLevel(log.DebugLevel)
			log.SetReportTimestamp(true)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
	// No subcommand: behave like ipc so editors can spawn the bare binary
	RunE: runIPC,
}

func init() {
	log.SetOutput(os.Stderr)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Directory holding the dictionary files (overrides dict.data_dir)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Toggle debug logging")

	rootCmd.AddCommand(serveCmd, ipcCmd, cliCmd, prepareCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current version",
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
		})
		styles := log.DefaultStyles()
		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		logger.SetStyles(styles)

		logger.Print("[ recomserve ] word completions with a generative fallback")
		logger.Print("", "version", Version)
		logger.Print("Github Repo", "gh", gh)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
