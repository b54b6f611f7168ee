package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/synka777/shlerp-cmd/internal/rules"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the recently elected rules",
	Long: `Show the rules recently elected per category, most recent first.

Rules listed here are tried before the rest of the catalog.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustLoadApp()
		if err := showHistory(cmd.Context(), a, cmd.OutOrStdout()); err != nil {
			a.exit(err)
		}
		a.Close()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the recently elected rules",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")

		a := mustLoadApp()
		if !yes {
			ok, err := confirm("Clear rule history? [y/N] ", os.Stdin, os.Stdout)
			if err != nil {
				a.exit(err)
			}
			if !ok {
				fmt.Println("Aborted")
				a.Close()
				return
			}
		}
		if err := clearHistory(cmd.Context(), a); err != nil {
			a.exit(err)
		}
		a.Close()
	},
}

func init() {
	historyClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func showHistory(ctx context.Context, a *app, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	h, err := a.recorder.Load(ctx)
	if err != nil {
		return err
	}
	if a.log.Headless() {
		out = io.Discard
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(out, "Rule history: %s (%s)\n", a.store.Location(), a.settings.History.Backend)
	limits := a.recorder.Limits()
	for _, cat := range rules.Categories {
		list := h.List(cat)
		fmt.Fprintf(out, "\n%s %d/%d\n", cyan(string(cat)), len(list), limits.For(cat))
		if len(list) == 0 {
			fmt.Fprintln(out, "  (empty)")
			continue
		}
		for i, name := range list {
			fmt.Fprintf(out, "  %d. %s\n", i+1, name)
		}
	}
	return nil
}

func clearHistory(ctx context.Context, a *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.recorder.Reset(ctx); err != nil {
		return err
	}
	a.log.Success("Rule history cleared")
	return nil
}

// confirm asks a yes/no question. Anything but y or yes is a no, and so is
// an interrupt.
func confirm(prompt string, in io.ReadCloser, out io.Writer) (bool, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return false, fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
