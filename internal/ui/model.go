// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/dersingpt/internal/chat"
	"github.com/jeranaias/dersingpt/internal/storage"
	"github.com/jeranaias/dersingpt/internal/ui/styles"
)

const (
	noticeMissingKey = "Add an API key in the Settings tab"
	statusKeySaved   = "Key saved"
	statusCancelled  = "Cancelled"

	newConversationLabel = "+ New conversation"
	streamCursor         = "▌"

	sidebarWidth = 32
	inputHeight  = 3
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

type sidebarTab int

const (
	tabConversations sidebarTab = iota
	tabSettings
)

// Options configures the TUI.
type Options struct {
	Session *chat.Session
	Store   *storage.Store

	// Markdown renders assistant replies with glamour.
	Markdown bool

	// Theme is "dark", "light" or "auto".
	Theme string

	Logger *zerolog.Logger
}

// Model is the Bubble Tea model of the TUI.
type Model struct {
	session *chat.Session
	store   *storage.Store
	theme   *styles.Theme
	keys    KeyMap
	logger  zerolog.Logger

	// Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	keyInput textinput.Model

	// Markdown
	markdown    bool
	glamourName string
	renderer    *glamour.TermRenderer

	// Dimensions
	width  int
	height int
	ready  bool

	// Session snapshot, refreshed while no turn is in flight
	currentID string
	history   []storage.Message

	// Turn in flight
	streaming bool
	cancelled bool
	pending   string
	partial   string
	events    chan tea.Msg
	cancel    context.CancelFunc

	// Feedback
	notice string
	status string
	err    error

	// Sidebar
	focus          focusArea
	tab            sidebarTab
	conversations  []conversationItem
	convCursor     int
	settingsCursor int
	editingKey     bool

	changes <-chan struct{}
}

// New creates the TUI model.
func New(opts Options) Model {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Purple)),
	)

	ki := textinput.New()
	ki.Placeholder = "sk-..."
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'
	ki.CharLimit = 256

	m := Model{
		session:     opts.Session,
		store:       opts.Store,
		theme:       styles.NewTheme(),
		keys:        keys,
		logger:      logger,
		viewport:    viewport.New(80, 20),
		input:       ta,
		spinner:     sp,
		keyInput:    ki,
		markdown:    opts.Markdown,
		glamourName: glamourStyle(opts.Theme),
	}
	m.syncSession()
	return m
}

// Init starts the cursor blink, the spinner and the first list load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.loadConversations(),
		waitForStoreChange(m.changes),
	)
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)

	if opts.Store != nil {
		changes, err := opts.Store.Watch(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Msg("conversation directory not watched")
		} else {
			m.changes = changes
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.cancel != nil {
		fm.cancel()
	}
	return err
}

// syncSession copies the session state the view reads. It must not be
// called while a turn is running.
func (m *Model) syncSession() {
	m.currentID = string(m.session.ID())
	m.history = m.session.Messages()
}

// loadConversations lists stored conversations with their sidebar labels.
func (m Model) loadConversations() tea.Cmd {
	store := m.store
	logger := m.logger
	return func() tea.Msg {
		if store == nil {
			return conversationsMsg{}
		}
		keys, err := store.List()
		if err != nil {
			return conversationsMsg{err: err}
		}
		items := make([]conversationItem, 0, len(keys))
		for _, key := range keys {
			label := key
			if name, err := store.DisplayNameFor(key); err == nil {
				label = storage.Label(name)
			} else {
				logger.Debug().Err(err).Str("conversation", key).Msg("no display name")
			}
			items = append(items, conversationItem{key: key, label: label})
		}
		return conversationsMsg{items: items}
	}
}

func glamourStyle(theme string) string {
	switch theme {
	case "dark", "light":
		return theme
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
