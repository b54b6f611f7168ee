package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/synka777/shlerp-cmd/internal/detect"
)

var detectCmd = &cobra.Command{
	Use:   "detect [target]",
	Short: "Detect the project type of a directory",
	Long: `Classify a project directory against the rule catalog.

Framework rules are checked first by looking for their marker files and
folders. When none qualifies, plain language rules are scored by counting
source files. A tie or a score below the threshold is reported instead of
guessed; use --rule to pick the rule yourself.

Examples:
  shlerp detect                 # Classify the current directory
  shlerp detect ~/dev/api       # Classify a given project
  shlerp detect -b ~/dev        # Classify every project under ~/dev
  shlerp detect -r django .     # Skip detection and use the django rule`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rule, _ := cmd.Flags().GetString("rule")
		batch, _ := cmd.Flags().GetBool("batch")

		a := mustLoadApp()
		if err := runDetect(cmd.Context(), a, targetArg(args), rule, batch); err != nil {
			a.exit(err)
		}
		a.Close()
	},
}

func init() {
	detectCmd.Flags().StringP("rule", "r", "", "Use this rule instead of detecting one")
	detectCmd.Flags().BoolP("batch", "b", false, "Classify each sub-directory of the target")
	rootCmd.AddCommand(detectCmd)
}

func targetArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func runDetect(ctx context.Context, a *app, target, rule string, batch bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dir, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", target, err)
	}

	if !batch {
		a.log.Info("Detecting project type of %s", dir)
		res, err := a.classifier.Classify(ctx, detect.Request{Dir: dir, Rule: rule})
		a.report(res, err)
		return err
	}

	a.log.Info("Detecting project types under %s", dir)
	items, err := a.classifier.ClassifyBatch(ctx, detect.Request{Dir: dir, Rule: rule})
	if err != nil {
		return err
	}
	failed := 0
	for _, item := range items {
		a.report(item.Result, item.Err)
		if item.Err != nil {
			a.log.Error("%s: %v", filepath.Base(item.Dir), item.Err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errUnresolved, failed, len(items))
	}
	a.log.Success("Classified %d project(s)", len(items))
	return nil
}

// report prints the outcome of one classification.
func (a *app) report(res *detect.Result, err error) {
	if res == nil {
		return
	}
	for _, step := range res.Trace {
		a.log.Debug("%-18s candidates=[%s] winners=[%s]",
			step.State, strings.Join(step.Candidates, ", "), strings.Join(step.Winners, ", "))
	}
	if res.ReadErrors > 0 {
		a.log.Debug("%d unreadable entries under %s were ignored", res.ReadErrors, res.Dir)
	}
	for _, w := range res.Warnings {
		a.log.Warn("%s", w)
	}
	if err != nil || res.Rule == nil {
		return
	}

	switch {
	case res.Preselected:
		a.log.Success("%s: using rule %s", filepath.Base(res.Dir), res.Rule.Name)
	default:
		a.log.Success("%s: %s project (%s, score %d)", filepath.Base(res.Dir), res.Rule.Name, res.Category, res.Total)
	}
}
