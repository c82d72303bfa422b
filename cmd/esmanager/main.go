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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/esmanager"
	"github.com/poiesic/esmanager/config"
	"github.com/urfave/cli/v2"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "esmanager",
		Usage:   "Manage entry sheet drafts and company profiles",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default ~/.esmanager/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides the config file",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding the database; overrides the config file",
			},
		},
		Before:   before,
		Commands: commands(),
	}
}

func before(c *cli.Context) error {
	if err := loadConfig(c); err != nil {
		return err
	}
	return setupLogger(c)
}

func configPath(c *cli.Context) (string, error) {
	if p := c.String("config"); p != "" {
		return config.ExpandPath(p)
	}
	return config.DefaultPath()
}

func loadConfig(c *cli.Context) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func setupLogger(c *cli.Context) error {
	// The flag wins over the config file.
	levelStr := strings.ToLower(c.String("log-level"))
	if levelStr == "" {
		levelStr = appConfig(c).LogLevel
	}

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	errWriter := c.App.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(errWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// withWorkspace opens the configured workspace for the duration of fn.
func withWorkspace(c *cli.Context, fn func(ctx context.Context, w *esmanager.Workspace) error) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	w, err := esmanager.Open(ctx, appConfig(c), esmanager.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer w.Close()

	return fn(ctx, w)
}
