// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the swipe keyboard server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

SwipeServe turns touch gestures on a compact nine key keyboard into text.
Every key carries up to five characters, one per swipe direction, and the
engine ranks dictionary words for the positions typed so far. It can operate
as a MessagePack IPC server for an input method frontend, or as a CLI
application for testing and debugging.

# Usage

Start the server with default settings:

	swipeserve

Use a custom corpus and enable debug mode:

	swipeserve -data /path/to/en_dict.bin -d

Read the corpus from inside a larger container file:

	swipeserve -data assets.pak -offset 4096 -length 812340

Run in CLI mode for interactive testing:

	swipeserve -c -limit 10

# Configuration

Runtime configuration is managed through a TOML file with gesture,
dictionary, suggestion, server and CLI sections:

	[gesture]
	swipe_radius = 10.0
	lateral_bias = 2.0

	[suggest]
	max_suggestions = 16
	relaxed_match = true

The config file is automatically created with defaults if it doesn't exist.
Server mode watches it and applies changes without restart; flags given on
the command line keep precedence over the file.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout, see package
server for the message set. Logs always go to stderr.

# Command Line Flags

	-data string
	    Corpus file (default from config)
	-offset int
	    Byte offset of the corpus inside the file
	-length int
	    Byte length of the corpus, 0 for the rest of the file
	-config string
	    Config file path
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of suggestions to print in CLI mode
	-reset-config
	    Rewrite the default config file and exit
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/swipeserve/internal/cli"
	"github.com/bastiangx/swipeserve/internal/logger"
	"github.com/bastiangx/swipeserve/internal/utils"
	"github.com/bastiangx/swipeserve/pkg/config"
	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/bastiangx/swipeserve/pkg/server"
	"github.com/bastiangx/swipeserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0-beta"
	AppName = "swipeserve"
	gh      = "https://github.com/bastiangx/swipeserve"
)

// cliWait bounds how long CLI mode waits for the first dictionary load.
const cliWait = 10 * time.Second

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
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	dataPath := flag.String("data", defaultConfig.Dict.Path, "Corpus file")
	offset := flag.Int64("offset", 0, "Byte offset of the corpus inside the data file")
	length := flag.Int64("length", 0, "Byte length of the corpus (0 reads to the end)")
	configPath := flag.String("config", "", "Config file path")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to print in CLI mode")
	resetConfig := flag.Bool("reset-config", false, "Rewrite the default config file with default values and exit")

	flag.Parse()
	logger.Setup(*debugMode)

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *resetConfig {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote default config to %s\n", path)
		os.Exit(0)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	appConfig, activeConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags set on the command line win over the file, on every reload too.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags := func(c *config.Config) {
		if set["data"] {
			c.Dict.Path = *dataPath
		}
		if set["offset"] {
			c.Dict.Offset = *offset
		}
		if set["length"] {
			c.Dict.Length = *length
		}
	}
	applyFlags(appConfig)
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	corpusPath := pathResolver.GetCorpusPath(appConfig.Dict.Path)
	log.Debugf("Using corpus at: %s (offset %d, length %d)", corpusPath, appConfig.Dict.Offset, appConfig.Dict.Length)

	loader := dictionary.NewLoader(
		dictionary.FileSource(corpusPath, appConfig.Dict.Offset, appConfig.Dict.Length, appConfig.DictionaryOptions()),
		appConfig.Dict.LoadRetries,
	)
	loader.Start()
	defer loader.Close()

	engine := suggest.NewEngine(loader, appConfig.SuggestOptions())

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		ctx, cancel := context.WithTimeout(context.Background(), cliWait)
		if err := loader.Wait(ctx); err != nil {
			log.Warnf("Dictionary not ready, running without suggestions: %v", err)
		}
		cancel()

		inputHandler := cli.NewInputHandler(engine, appConfig.SessionOptions(), *limit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(engine, loader, appConfig, activeConfig)
	srv.SetPathResolver(pathResolver.GetCorpusPath)

	if activeConfig != "" {
		watcher, err := config.NewWatcher(activeConfig, func(c *config.Config) {
			applyFlags(c)
			srv.ApplyConfig(c)
		})
		if err != nil {
			log.Warnf("Config changes will need a restart: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	showStartupInfo(corpusPath, activeConfig)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func printVersion() {
	out := log.NewWithOptions(os.Stderr, log.Options{
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
	out.SetStyles(styles)

	out.Print("")
	out.Print("[ SwipeServe ] Nine keys, five directions, whole words!")
	out.Print("", "version", Version)
	out.Print("")
	out.Print("use -h or --help to see available options")
	out.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(corpusPath, configPath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	banner := lipgloss.NewStyle().Bold(true).Padding(0, 1).
		Border(lipgloss.NormalBorder(), true, false)
	fmt.Fprintln(os.Stderr, banner.Render(" SwipeServe "))
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("corpus: ( %s )", corpusPath)
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Info("status: ready")
}
