// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs conversation turns: it sends the history to the model,
// streams the reply to a display callback and persists the result.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/storage"
)

// ConversationID identifies the stored record a session writes to. The zero
// value means the conversation has not been stored yet.
type ConversationID string

// IsNew reports whether the conversation has never been stored.
func (id ConversationID) IsNew() bool {
	return id == ""
}

var (
	// ErrMissingAPIKey is returned when a turn is attempted without a key.
	ErrMissingAPIKey = errors.New("no API key configured")

	// ErrEmptyPrompt is returned for blank prompts.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrUnknownModel is returned when selecting a model not in llm.Models.
	ErrUnknownModel = errors.New("unknown model")
)

// ConversationStore is the persistence a session needs.
type ConversationStore interface {
	Save(messages []storage.Message) (key string, saved bool, err error)
	SaveAs(key string, messages []storage.Message) error
	Load(key string) ([]storage.Message, error)
}

// CredentialStore persists the API key.
type CredentialStore interface {
	Save(value string) error
}

// Session holds the active conversation. It is not safe for concurrent use;
// callers run one turn at a time.
type Session struct {
	store       ConversationStore
	credentials CredentialStore
	completer   llm.Completer
	logger      zerolog.Logger

	id       ConversationID
	messages []storage.Message
	model    string
	apiKey   string
}

// Option configures a Session.
type Option func(*Session)

// WithModel selects the initial model. Unknown names are ignored.
func WithModel(name string) Option {
	return func(s *Session) {
		if llm.ValidModel(name) {
			s.model = name
		}
	}
}

// WithAPIKey sets the initial key without persisting it.
func WithAPIKey(key string) Option {
	return func(s *Session) {
		s.apiKey = key
	}
}

// WithLogger sets the logger used for turn events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session with an empty, unsaved conversation.
func NewSession(store ConversationStore, credentials CredentialStore, completer llm.Completer, opts ...Option) *Session {
	s := &Session{
		store:       store,
		credentials: credentials,
		completer:   completer,
		logger:      log.Logger,
		model:       llm.DefaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the current conversation id.
func (s *Session) ID() ConversationID {
	return s.id
}

// Messages returns a copy of the current history.
func (s *Session) Messages() []storage.Message {
	out := make([]storage.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Model returns the selected model.
func (s *Session) Model() string {
	return s.model
}

// APIKey returns the key used for requests.
func (s *Session) APIKey() string {
	return s.apiKey
}

// New starts an empty conversation.
func (s *Session) New() {
	s.id = ""
	s.messages = nil
}

// Open makes the stored conversation key current. On error the session is
// left unchanged.
func (s *Session) Open(key string) error {
	msgs, err := s.store.Load(key)
	if err != nil {
		return fmt.Errorf("open conversation %s: %w", key, err)
	}
	s.id = ConversationID(key)
	s.messages = msgs
	s.logger.Debug().Str("conversation", key).Int("messages", len(msgs)).Msg("conversation opened")
	return nil
}

// SetModel selects the model for later turns.
func (s *Session) SetModel(name string) error {
	if !llm.ValidModel(name) {
		return fmt.Errorf("%w: %s (available: %s)", ErrUnknownModel, name, strings.Join(llm.Models, ", "))
	}
	s.model = name
	return nil
}

// SetAPIKey updates the key and persists it when it changed.
func (s *Session) SetAPIKey(value string) error {
	if value == s.apiKey {
		return nil
	}
	if err := s.credentials.Save(value); err != nil {
		return err
	}
	s.apiKey = value
	s.logger.Info().Msg("api key updated")
	return nil
}

// Send runs one turn. display, if non-nil, receives the accumulated reply
// after every streamed fragment. On success the user and assistant
// messages are appended and the conversation is written once; the reply is
// returned even if that write fails. If the stream fails the history is
// left untouched.
func (s *Session) Send(ctx context.Context, prompt string, display func(partial string)) (string, error) {
	if s.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	turnID := uuid.NewString()
	logger := s.logger.With().Str("turn_id", turnID).Str("model", s.model).Logger()

	outgoing := append(s.Messages(), storage.Message{Role: storage.RoleUser, Content: prompt})
	logger.Debug().Int("messages", len(outgoing)).Msg("turn started")
	start := time.Now()

	stream, err := s.completer.Stream(ctx, llm.Request{
		APIKey:   s.apiKey,
		Model:    s.model,
		Messages: outgoing,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("turn failed to start")
		return "", err
	}

	reply, err := llm.Collect(stream, display)
	if err != nil {
		logger.Warn().Err(err).Msg("turn aborted")
		return "", err
	}

	s.messages = append(outgoing, storage.Message{Role: storage.RoleAssistant, Content: reply})
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("reply_chars", len([]rune(reply))).
		Msg("turn completed")

	if err := s.persist(); err != nil {
		logger.Error().Err(err).Str("conversation", string(s.id)).Msg("conversation not saved")
		return reply, err
	}
	return reply, nil
}

// persist writes the history with exactly one store call.
func (s *Session) persist() error {
	if s.id.IsNew() {
		key, saved, err := s.store.Save(s.messages)
		if err != nil {
			return err
		}
		if saved {
			s.id = ConversationID(key)
			s.logger.Debug().Str("conversation", key).Msg("conversation created")
		}
		return nil
	}
	return s.store.SaveAs(string(s.id), s.messages)
}
