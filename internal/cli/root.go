// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/dersingpt/internal/config"
	"github.com/jeranaias/dersingpt/internal/logging"
	"github.com/jeranaias/dersingpt/internal/ui"
)

// Version information, overridden at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command annotations.
const (
	// logToFile marks commands that own the terminal; their logs go to
	// the log file instead of stderr.
	logToFile = "log-to-file"

	// skipInit marks commands that run without loading the application.
	skipInit = "skip-init"
)

// rootFlags are the persistent flags shared by all commands.
type rootFlags struct {
	configPath string
	dataDir    string
	model      string
	logLevel   string
	logFile    string
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	app := &App{}
	cmd := NewRootCommand(app)
	err := cmd.ExecuteContext(ctx)
	app.Close()
	if err != nil {
		DisplayError(cmd.ErrOrStderr(), err)
	}
	return GetExitCode(err)
}

// NewRootCommand builds the command tree. app is populated before any
// command runs.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "dersingpt",
		Short:         "Chat with OpenAI models from the terminal",
		Long:          "dersingpt is a terminal chat client that stores every conversation as a JSON file under ~/.dersingpt.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{logToFile: "true"},
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd, flags)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.NewSession()
			if err != nil {
				return err
			}
			logger := app.Logger
			return ui.Run(cmd.Context(), ui.Options{
				Session:  session,
				Store:    app.Store,
				Markdown: app.Config.UI.Markdown,
				Theme:    app.Config.UI.Theme,
				Logger:   &logger,
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.dersingpt/config.toml)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory")
	pf.StringVarP(&flags.model, "model", "m", "", "model for new turns")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file")

	root.AddCommand(
		newChatCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newExportCommand(app),
		newKeyCommand(app),
		newModelsCommand(app),
		newConfigCommand(app, flags),
		newVersionCommand(),
	)
	return root
}

// loadConfig reads the config file selected by flags and applies the flag
// overrides.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFile != "" {
		cfg.Log.File = flags.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogging sends logs to the log file for terminal-owning commands or
// when a file is configured, and to stderr otherwise.
func initLogging(cmd *cobra.Command, cfg *config.Config) (io.Closer, error) {
	opts := logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}
	if cmd.Annotations[logToFile] == "true" || cfg.Log.File != "" {
		if err := os.MkdirAll(cfg.Dir(), 0755); err != nil {
			return nil, err
		}
		opts.File = cfg.LogFile()
	} else {
		opts.Console = cmd.ErrOrStderr()
	}

	_, closer, err := logging.Init(opts)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("command", cmd.Name()).Str("data_dir", cfg.Dir()).Msg("starting")
	return closer, nil
}
