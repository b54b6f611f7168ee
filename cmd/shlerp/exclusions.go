package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/synka777/shlerp-cmd/internal/detect"
	"github.com/synka777/shlerp-cmd/internal/exclusion"
)

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions [target]",
	Short: "Show what a backup of a project leaves out",
	Long: `Detect the project type (or use --rule) and print the exclusions a backup
would apply: the rule's dependency folders, build output and excluded files,
adjusted by the backup options.

Examples:
  shlerp exclusions                  # Exclusions for the current directory
  shlerp exclusions --nogit ~/dev/x  # Also leave out .git and .gitignore
  shlerp exclusions --files .        # List every file a backup would keep`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rule, _ := cmd.Flags().GetString("rule")
		listFiles, _ := cmd.Flags().GetBool("files")
		var opts exclusion.Options
		opts.NoGit, _ = cmd.Flags().GetBool("nogit")
		opts.NoExcl, _ = cmd.Flags().GetBool("noexcl")
		opts.KeepHidden, _ = cmd.Flags().GetBool("keephidden")

		a := mustLoadApp()
		if err := showExclusions(cmd.Context(), a, cmd.OutOrStdout(), targetArg(args), rule, opts, listFiles); err != nil {
			a.exit(err)
		}
		a.Close()
	},
}

func init() {
	exclusionsCmd.Flags().StringP("rule", "r", "", "Use this rule instead of detecting one")
	exclusionsCmd.Flags().Bool("nogit", false, "Leave out the .git folder and .gitignore")
	exclusionsCmd.Flags().Bool("noexcl", false, "Keep everything except dependency folders")
	exclusionsCmd.Flags().Bool("keephidden", false, "Keep hidden files and folders")
	exclusionsCmd.Flags().Bool("files", false, "List the files a backup would keep")
	rootCmd.AddCommand(exclusionsCmd)
}

func showExclusions(ctx context.Context, a *app, out io.Writer, target, rule string, opts exclusion.Options, listFiles bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dir, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", target, err)
	}

	res, err := a.classifier.Classify(ctx, detect.Request{Dir: dir, Rule: rule})
	a.report(res, err)
	if err != nil {
		return err
	}
	if a.log.Headless() {
		out = io.Discard
	}

	policy := exclusion.Resolve(res.Rule, opts)
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", cyan("Exclusions for"), policy.Rule)
	entries := policy.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, e := range entries {
		fmt.Fprintf(out, "  - %s\n", e)
	}
	if !listFiles {
		return nil
	}

	fmt.Fprintf(out, "\n%s\n", cyan("Kept files"))
	kept := 0
	err = policy.Walk(ctx, a.fs, dir, func(rel string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		kept++
		fmt.Fprintf(out, "  %s\n", rel)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d file(s)\n", kept)
	return nil
}
