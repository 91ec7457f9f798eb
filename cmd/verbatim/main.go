// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/verbatim"
	"github.com/poiesic/verbatim/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "verbatim",
		Usage: "Answer questions about recorded conversations with cited transcript passages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Answer language (en, tr); overrides the config file",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Durable cache store (badger, sqlite, memory); overrides the config file",
			},
			&cli.BoolFlag{
				Name:  "no-persist",
				Usage: "Keep the answer cache in memory only",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a question using the full pipeline",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags:     answerFlags(),
			},
			{
				Name:      "quick",
				Usage:     "Answer a question in quick mode",
				ArgsUsage: "<question>",
				Action:    quickCommand,
				Flags:     answerFlags(),
			},
			{
				Name:      "batch",
				Usage:     "Answer many questions concurrently in quick mode",
				ArgsUsage: "[question...]",
				Action:    batchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read questions from a file, one per line",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of questions answered at once (0 uses the config value)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Time limit per question (0 uses the config value)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N answers (0 disables progress)",
						Value: 1,
					},
				},
			},
			{
				Name:   "shell",
				Usage:  "Start an interactive question shell",
				Action: shellCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Archive every answer to the analysis directory",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print a per-stage timing report after each answer",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Listen address; overrides the config file",
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Inspect and maintain the answer cache",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Print cache counters",
						Action: cacheStatsCommand,
					},
					{
						Name:   "flush",
						Usage:  "Write the durable cache to its store",
						Action: cacheFlushCommand,
					},
					{
						Name:   "clear",
						Usage:  "Remove every cached answer",
						Action: cacheClearCommand,
					},
				},
			},
		},
	}
}

func answerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "Print a per-stage timing report to stderr",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Archive the answer to the analysis directory",
		},
		&cli.BoolFlag{
			Name:  "no-stream",
			Usage: "Print the answer once it is complete instead of streaming it",
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format := strings.ToLower(c.String("log-format")); format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig builds the configuration from the config file, the environment
// and the global flags, in increasing order of precedence.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if lang := c.String("lang"); lang != "" {
		cfg.Language = lang
	}
	if store := c.String("store"); store != "" {
		cfg.Cache.Store = store
	}
	if c.Bool("no-persist") {
		cfg.Cache.Store = config.StoreMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openService(c *cli.Context) (*verbatim.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	svc, err := verbatim.New(cfg, verbatim.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}
