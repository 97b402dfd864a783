// Package main is the HearClear CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hearclear/hearclear/internal/audio"
	"github.com/hearclear/hearclear/internal/cli"
	"github.com/hearclear/hearclear/internal/config"
	"github.com/hearclear/hearclear/internal/models"
	"github.com/hearclear/hearclear/internal/retrieval"
	"github.com/hearclear/hearclear/internal/semantic"
	"github.com/hearclear/hearclear/internal/server"
	"github.com/hearclear/hearclear/internal/store"
	"github.com/hearclear/hearclear/internal/watcher"
	"github.com/hearclear/hearclear/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/hearclear/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "hearclear server" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "version", "--version", "-v":
		fmt.Printf("hearclear version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (transcript changes, query details, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	st := components.Store
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Storage.TranscriptsDir,
		func(id string) { st.Track(id) },
		func(id string) { st.Forget(id) },
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}

	srv := server.NewServer(components.Pipeline, st, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchSvc.Stop()
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: hearclear ask [flags] <transcript-id> <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces; quoting is optional.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  hearclear ask rec-42 when should I take my medication
  hearclear ask --semantic=false rec-42 "what did the doctor say"
  hearclear ask --output json rec-42 "next appointment"
`)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	semanticEnabled := fs.Bool("semantic", true, "use the language model backend when available")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		printAskUsage(fs)
		os.Exit(1)
	}
	transcriptID := fs.Arg(0)
	questionText := buildQuestion(fs.Args()[1:])
	if questionText == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	question := &models.Question{Text: questionText, Semantic: semanticEnabled}

	if *serverURL != "" {
		result, err := askViaHTTP(*serverURL, transcriptID, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	transcript, err := components.Store.Get(ctx, transcriptID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load transcript: %v\n", err)
		os.Exit(1)
	}
	result, err := components.Pipeline.AnswerText(ctx, transcript, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, transcriptID string, question *models.Question) (*models.AnswerResult, error) {
	body, err := json.Marshal(question)
	if err != nil {
		return nil, err
	}
	endpoint := serverURL + "/api/v1/transcripts/" + url.PathEscape(transcriptID) + "/query"
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.AnswerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Components holds initialized services.
type Components struct {
	Store    *store.DiskStore
	Pipeline *retrieval.Pipeline
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewDiskStore(cfg.Storage.TranscriptsDir, cfg.Storage.AudioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	var matcher semantic.Matcher
	if cfg.Semantic.EnabledOrDefault() {
		client := semantic.NewClient(cfg.Semantic.BaseURL, cfg.Semantic.Model, cfg.Semantic.Timeout())
		matcher = semantic.NewAdapter(client, logger)
		logger.Info("semantic matching enabled",
			zap.String("base_url", cfg.Semantic.BaseURL),
			zap.String("model", cfg.Semantic.Model))
	} else {
		logger.Info("semantic matching disabled, using keyword matching only")
	}

	resolver := retrieval.NewResolver(matcher, logger)
	extractor := audio.NewExtractor(cfg.Audio.PaddingOrDefault(), logger)
	pipeline := retrieval.NewPipeline(resolver, extractor, logger)

	return &Components{
		Store:    st,
		Pipeline: pipeline,
	}, nil
}

func printUsage() {
	fmt.Println(`hearclear - Transcript question answering with audio clips

Usage:
  hearclear server [flags]                    Start the HTTP server
  hearclear ask [flags] <id> <question>       Ask a question about a transcript
  hearclear version                           Show version
  hearclear help                              Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/hearclear/config.yaml)
  --debug            Enable debug logging (transcript changes, query details, etc.)

Ask Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to use direct storage when server is not running.
  --semantic         Use the language model backend when available (default: true)
  --output string    Output format: text or json (default: text)

Examples:
  hearclear server
  hearclear ask rec-42 when should I take my medication
  hearclear ask --semantic=false rec-42 "what did the doctor say"
  hearclear ask --output json rec-42 "next appointment"`)
}
