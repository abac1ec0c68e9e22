// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/dersingpt/internal/chat"
	"github.com/jeranaias/dersingpt/internal/credential"
	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/storage"
)

func newChatCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a line-based chat session",
		Long: `Start an interactive chat in the terminal. Replies stream as they arrive
and every turn is saved under the data directory.

Type /help during the session for the list of commands.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToFile: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.NewSession()
			if err != nil {
				return err
			}
			in := NewChatCLI(app.Config.HistoryFile())
			defer in.Close()

			return newREPL(app.Store, session, in, cmd.OutOrStdout()).run(cmd.Context())
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader reads one line of user input.
type lineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor backed by historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with the given prompt. Non-empty input is added
// to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes input history to file, readable by the owner only.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	store   *storage.Store
	session *chat.Session
	in      lineReader
	out     io.Writer

	// listed holds the keys printed by the last /list, for /open <n>.
	listed []string
}

func newREPL(store *storage.Store, session *chat.Session, in lineReader, out io.Writer) *repl {
	return &repl{store: store, session: session, in: in, out: out}
}

// run reads prompts until /quit or end of input.
func (r *repl) run(ctx context.Context) error {
	r.printWelcome()

	for {
		input, err := r.in.ReadInput("> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out, DimStyle.Render("Use /quit or Ctrl+D to exit."))
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			quit, err := r.handleSlashCommand(input)
			if err != nil {
				DisplayError(r.out, err)
			}
			if quit {
				return nil
			}
			continue
		}

		r.turn(ctx, input)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// turn sends one prompt. Ctrl+C cancels the request.
func (r *repl) turn(parent context.Context, prompt string) {
	if r.session.APIKey() == "" {
		fmt.Fprintln(r.out, WarningStyle.Render("No API key set. Use /key <value> to add one."))
		return
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintln(r.out, assistantStyle.Render("Assistant:"))
	p := &streamPrinter{w: r.out}
	reply, err := r.session.Send(ctx, prompt, p.print)
	p.finish()

	switch {
	case err == nil:
	case reply != "":
		fmt.Fprintln(r.out, WarningStyle.Render("Reply not saved: ")+err.Error())
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(r.out, DimStyle.Render("(cancelled)"))
	default:
		DisplayError(r.out, err)
	}
}

// streamPrinter writes the new suffix of each accumulated partial reply.
type streamPrinter struct {
	w       io.Writer
	printed int
}

func (p *streamPrinter) print(partial string) {
	if len(partial) <= p.printed {
		return
	}
	fmt.Fprint(p.w, partial[p.printed:])
	p.printed = len(partial)
}

func (p *streamPrinter) finish() {
	if p.printed > 0 {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a /command. quit is true when the REPL should
// exit.
func (r *repl) handleSlashCommand(input string) (quit bool, err error) {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch name {
	case "/help", "/h", "/?":
		r.printHelp()
	case "/quit", "/q", "/exit":
		return true, nil
	case "/new", "/n":
		r.session.New()
		fmt.Fprintln(r.out, SuccessStyle.Render("Started a new conversation."))
	case "/list", "/l":
		return false, r.list()
	case "/open", "/o":
		return false, r.open(arg)
	case "/model", "/m":
		return false, r.model(arg)
	case "/key":
		return false, r.key(arg)
	case "/history":
		r.printHistory()
	default:
		return false, usageErrorf("unknown command %s (try /help)", fields[0])
	}
	return false, nil
}

func (r *repl) list() error {
	keys, err := r.store.List()
	if err != nil {
		return err
	}
	r.listed = keys
	if len(keys) == 0 {
		fmt.Fprintln(r.out, "No conversations yet.")
		return nil
	}
	printConversations(r.out, r.store, keys, string(r.session.ID()))
	return nil
}

func (r *repl) open(arg string) error {
	if arg == "" {
		return usageErrorf("usage: /open <number|key>")
	}

	key := arg
	if n, err := strconv.Atoi(arg); err == nil {
		if r.listed == nil {
			if r.listed, err = r.store.List(); err != nil {
				return err
			}
		}
		if n < 1 || n > len(r.listed) {
			return usageErrorf("no conversation #%d (run /list)", n)
		}
		key = r.listed[n-1]
	}

	if err := r.session.Open(key); err != nil {
		return err
	}
	label := key
	if name, err := r.store.DisplayNameFor(key); err == nil {
		label = storage.Label(name)
	}
	fmt.Fprintf(r.out, "%s %s %s\n",
		SuccessStyle.Render("Opened"), label,
		DimStyle.Render(fmt.Sprintf("(%d messages, /history to review)", len(r.session.Messages()))))
	return nil
}

func (r *repl) model(arg string) error {
	if arg == "" {
		fmt.Fprintln(r.out, RenderLabel("Model:")+ValueStyle.Render(r.session.Model()))
		fmt.Fprintln(r.out, RenderLabel("Available:")+ValueStyle.Render(strings.Join(llm.Models, ", ")))
		return nil
	}
	if err := r.session.SetModel(arg); err != nil {
		return err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Model set to "+arg))
	return nil
}

func (r *repl) key(arg string) error {
	if arg == "" {
		fmt.Fprintln(r.out, RenderLabel("Key:")+ValueStyle.Render(credential.Mask(r.session.APIKey())))
		return nil
	}
	if err := r.session.SetAPIKey(arg); err != nil {
		return err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Key saved"))
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *repl) printWelcome() {
	fmt.Fprintln(r.out, TitleStyle.Render("DersinGPT"))
	fmt.Fprintln(r.out, DimStyle.Render("Model: "+r.session.Model()+" | /help for commands | Ctrl+D to exit"))
	fmt.Fprintln(r.out, RenderSeparator(min(GetTerminalWidth()-4, 60)))
	if r.session.APIKey() == "" {
		fmt.Fprintln(r.out, WarningStyle.Render("No API key set. Use /key <value> to add one."))
	}
}

func (r *repl) printHelp() {
	cmds := []struct{ name, desc string }{
		{"/help", "Show this help"},
		{"/new", "Start a new conversation"},
		{"/list", "List stored conversations"},
		{"/open <n|key>", "Open a conversation by list number or key"},
		{"/model [name]", "Show or switch the model"},
		{"/key <value>", "Store the API key"},
		{"/history", "Show the current conversation"},
		{"/quit", "Exit"},
	}
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	for _, c := range cmds {
		fmt.Fprintf(r.out, "  %s %s\n", commandStyle.Render(fmt.Sprintf("%-16s", c.name)), c.desc)
	}
	fmt.Fprintln(r.out, DimStyle.Render("  Ctrl+C cancels a reply in progress."))
}

func (r *repl) printHistory() {
	msgs := r.session.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, "No messages yet.")
		return
	}
	for _, m := range msgs {
		if m.Role == storage.RoleUser {
			fmt.Fprintln(r.out, youStyle.Render("You:"))
		} else {
			fmt.Fprintln(r.out, assistantStyle.Render("Assistant:"))
		}
		fmt.Fprintln(r.out, strings.TrimRight(m.Content, "\n"))
		fmt.Fprintln(r.out)
	}
}
