// Copyright 2025 The NameServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the rename suggestion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

NameServe suggests a name for a Java identifier. It finds every occurrence of
the identifier under the cursor, masks them, and asks a masked-language model
to fill the masks back in for 1 to N subtokens, keeping the name with the
lowest pseudo-log-likelihood. It can operate as a MessagePack IPC server for
integration with text editors, or as a CLI application for testing and
debugging.

# Usage

Start the server with default settings:

	nameserve

Use a custom vocabulary directory and enable debug mode:

	nameserve -model /path/to/codebert -d

Run in CLI mode against a local file, with the offline mock model:

	nameserve -c -src Snippet.java -mock

The model directory holds the sub-tokenizer files of the served model:
vocab.json and merges.txt for byte-level BPE, or vocab.txt for WordPiece.
Inference runs behind model.endpoint; with -mock it runs in-process on
deterministic logits.

# Configuration

Runtime configuration is managed through a TOML file:

	[server]
	max_code_bytes = 262144

	[model]
	backend = "remote"
	endpoint = "http://127.0.0.1:8087/forward"
	max_length = 512
	vocab_format = "bpe"

	[search]
	max_subtokens = 6
	top_k = 5
	parallel = false

	[resolve]
	strategy = "lexical"

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout:

	{"id": "req1", "code": "int x = 1; print(x);", "line": 1, "char": 5}

	{"id": "req1", "s": ["total"], "p": [0.42], "k": 1, "o": "x", "t": 145210}

See package server for the full message set.

# Command Line Flags

	-config string
	    Path to a config.toml (default [UserConfigDir]/nameserve/config.toml)
	-model string
	    Directory holding the vocabulary files (overrides model.vocab_dir)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-src string
	    Java source file the CLI queries run against
	-n int
	    Subtoken count for CLI queries, -1 searches (default -1)
	-strategy string
	    Occurrence strategy: lexical or structural (overrides resolve.strategy)
	-mock
	    Use the in-process mock model instead of the remote backend
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/nameserve/internal/cli"
	"github.com/bastiangx/nameserve/internal/utils"
	"github.com/bastiangx/nameserve/pkg/config"
	"github.com/bastiangx/nameserve/pkg/encode"
	"github.com/bastiangx/nameserve/pkg/model"
	"github.com/bastiangx/nameserve/pkg/model/mock"
	"github.com/bastiangx/nameserve/pkg/model/remote"
	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/bastiangx/nameserve/pkg/resolve"
	"github.com/bastiangx/nameserve/pkg/score"
	"github.com/bastiangx/nameserve/pkg/server"
	"github.com/bastiangx/nameserve/pkg/suggest"
	"github.com/bastiangx/nameserve/pkg/vocab"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	gh      = "https://github.com/bastiangx/nameserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to config.toml")
	modelDir := flag.String("model", "", "Directory containing the vocabulary files")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	srcFile := flag.String("src", "", "Java source file for CLI queries")
	subtokens := flag.Int("n", rename.Auto, "Subtoken count for CLI queries (-1 searches 1..max_subtokens)")
	strategy := flag.String("strategy", "", "Occurrence strategy: lexical or structural")
	useMock := flag.Bool("mock", false, "Use the in-process mock model (offline dry runs)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	// Initialize path resolver for robust path handling
	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	if *modelDir != "" {
		cfg.Model.VocabDir = *modelDir
	}
	if *strategy != "" {
		cfg.Resolve.Strategy = *strategy
	}
	if *useMock {
		cfg.Model.Backend = config.BackendMock
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	engine, resolvedModelDir, err := buildEngine(cfg, pathResolver)
	if err != nil {
		log.Fatalf("Failed to init engine: %v", err)
	}
	log.Debug("Engine init done", "backend", cfg.Model.Backend, "strategy", cfg.Resolve.Strategy, "model", resolvedModelDir)

	ctx := context.Background()

	// CLI would be mainly used for testing and dbg purposes.
	// NOTE: Server interface takes snippets per request while the CLI loads one file.
	if *cliMode {
		log.SetReportTimestamp(false)
		code, err := cli.ReadSource(*srcFile)
		if err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		log.Debug("Input info:", "src", *srcFile, "n", *subtokens)

		inputHandler := cli.NewInputHandler(engine, code, *subtokens)
		if err := inputHandler.Start(ctx); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(engine, server.Info{
		Version:      Version,
		Backend:      cfg.Model.Backend,
		Strategy:     cfg.Resolve.Strategy,
		VocabFormat:  cfg.Model.VocabFormat,
		MaxLength:    cfg.Model.MaxLength,
		MaxSubtokens: cfg.Search.MaxSubtokens,
		MaxCodeBytes: cfg.Server.MaxCodeBytes,
	})

	showStartupInfo(resolvedModelDir, cfg)

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildEngine loads the vocabulary and model backend and wires the pipeline.
func buildEngine(cfg *config.Config, pr *utils.PathResolver) (*suggest.Engine, string, error) {
	strategy, err := resolve.ParseStrategy(cfg.Resolve.Strategy)
	if err != nil {
		return nil, "", err
	}
	format, err := vocab.ParseFormat(cfg.Model.VocabFormat)
	if err != nil {
		return nil, "", err
	}

	dir := pr.GetModelDir(cfg.Model.VocabDir, format.Files()...)
	v, err := vocab.Load(format, dir, cfg.Model.Specials())
	if err != nil {
		return nil, dir, fmt.Errorf("load %s vocabulary from %s: %w", format, dir, err)
	}

	var lm model.MaskedLM
	switch cfg.Model.Backend {
	case config.BackendMock:
		log.Warn("Using the mock model: suggestions are not meaningful")
		lm = mock.New(v.Size(), v.MaskID())
	default:
		lm, err = remote.New(remote.Options{
			Endpoint:       cfg.Model.Endpoint,
			TimeoutSeconds: cfg.Model.TimeoutSeconds,
		})
		if err != nil {
			return nil, dir, err
		}
	}

	enc, err := encode.New(v, cfg.Model.MaxLength, cfg.Search.Placeholder)
	if err != nil {
		return nil, dir, err
	}

	engine := suggest.New(resolve.New(strategy), enc, score.New(lm, v, cfg.Search.TopK), suggest.Options{
		MaxSubtokens: cfg.Search.MaxSubtokens,
		Placeholder:  cfg.Search.Placeholder,
		Parallel:     cfg.Search.Parallel,
	})
	return engine, dir, nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ NameServe ] Suggests names for Java identifiers")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(modelDir string, cfg *config.Config) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" NameServe ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("model dir: ( %s )", modelDir)
	log.Infof("backend: %s, strategy: %s", cfg.Model.Backend, cfg.Resolve.Strategy)
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
