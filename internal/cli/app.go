// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/dersingpt/internal/chat"
	"github.com/jeranaias/dersingpt/internal/config"
	"github.com/jeranaias/dersingpt/internal/credential"
	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/storage"
)

// App holds the components shared by all commands.
type App struct {
	Config      *config.Config
	Store       *storage.Store
	Credentials *credential.Store
	Completer   llm.Completer
	Logger      zerolog.Logger

	logCloser io.Closer
}

// init loads configuration, installs the logger and opens the stores.
func (a *App) init(cmd *cobra.Command, flags *rootFlags) error {
	if cmd.Annotations[skipInit] == "true" {
		return nil
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	closer, err := initLogging(cmd, cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.logCloser = closer
	a.Config = cfg
	a.Logger = log.Logger

	store, err := storage.NewStore(cfg.ConversationsDir())
	if err != nil {
		return err
	}
	a.Store = store
	a.Credentials = credential.NewStore(cfg.CredentialsDir())

	if a.Completer == nil {
		a.Completer = llm.NewClient(
			llm.WithBaseURL(cfg.API.BaseURL),
			llm.WithTimeout(time.Duration(cfg.API.TimeoutSecs)*time.Second),
		)
	}
	return nil
}

// NewSession starts a session on a new conversation using the stored key.
func (a *App) NewSession() (*chat.Session, error) {
	key, err := a.Credentials.Load()
	if err != nil {
		return nil, fmt.Errorf("load api key: %w", err)
	}
	return chat.NewSession(a.Store, a.Credentials, a.Completer,
		chat.WithModel(a.Config.Model),
		chat.WithAPIKey(key),
		chat.WithLogger(a.Logger),
	), nil
}

// Close releases the log file.
func (a *App) Close() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}
