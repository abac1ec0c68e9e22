// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/dersingpt/internal/credential"
	"github.com/jeranaias/dersingpt/internal/llm"
	"github.com/jeranaias/dersingpt/internal/storage"
	"github.com/jeranaias/dersingpt/internal/util"
)

// =============================================================================
// CONVERSATIONS
// =============================================================================

func newListCommand(app *App) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored conversations, most recent first",
		Example: `  dersingpt list
  dersingpt list --search coffee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := app.Store.Search(search)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				if search != "" {
					fmt.Fprintf(out, "No conversations match %q.\n", search)
				} else {
					fmt.Fprintln(out, "No conversations yet.")
				}
				return nil
			}
			printConversations(out, app.Store, keys, "")
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only list conversations containing this text")
	return cmd
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Print a stored conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Store.LoadRecord(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderMarkdown(out, rec.ExportMarkdown(), app.Config.UI.Markdown, app.Config.UI.Theme))
			return nil
		},
	}
}

func newExportCommand(app *App) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <key>",
		Short: "Export a stored conversation",
		Example: `  dersingpt export howdoimakecoffee
  dersingpt export howdoimakecoffee --format json -o coffee.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Store.LoadRecord(args[0])
			if err != nil {
				return err
			}
			data, err := rec.Export(format)
			if err != nil {
				return &UsageError{Reason: err.Error()}
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := util.AtomicWriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), SuccessStyle.Render("Exported to "+output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", storage.FormatMarkdown,
		"output format ("+strings.Join(storage.ExportFormats, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

// =============================================================================
// SETTINGS
// =============================================================================

func newKeyCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <value>",
		Short: "Store the API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.TrimSpace(args[0])
			if value == "" {
				return usageErrorf("key must not be empty")
			}
			if err := app.Credentials.Save(value); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Key saved")+" "+DimStyle.Render(credential.Mask(value)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored API key, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := app.Credentials.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, RenderLabel("Key:")+ValueStyle.Render(credential.Mask(value)))
			fmt.Fprintln(out, RenderLabel("File:")+ValueStyle.Render(app.Credentials.Path()))
			return nil
		},
	})
	return cmd
}

func newModelsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List selectable models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range llm.Models {
				if name == app.Config.Model {
					fmt.Fprintln(out, "* "+SuccessStyle.Render(name))
				} else {
					fmt.Fprintln(out, "  "+name)
				}
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipInit: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dersingpt %s (commit %s, built %s) %s %s/%s\n",
				Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// printConversations prints a numbered list of keys with their labels.
// The entry equal to current is marked.
func printConversations(out io.Writer, store *storage.Store, keys []string, current string) {
	width := GetTerminalWidth()
	for i, key := range keys {
		label := key
		if name, err := store.DisplayNameFor(key); err == nil {
			label = storage.Label(name)
		}
		mark := " "
		if key == current {
			mark = "*"
		}
		line := fmt.Sprintf("%s%3d  %s", mark, i+1, label)
		line = util.TruncateWidth(line, max(20, width-util.StringWidth(key)-4))
		fmt.Fprintf(out, "%s  %s\n", line, DimStyle.Render(key))
	}
}
