package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/synka777/shlerp-cmd/internal/detect"
	"github.com/synka777/shlerp-cmd/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rule catalog",
	Long: `List every rule of the catalog with what it detects on.

Framework rules show the score they must reach to qualify: the sum of the
weights of their criteria, minus criteria naming an excluded folder.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustLoadApp()
		if err := listRules(a, cmd.OutOrStdout()); err != nil {
			a.exit(err)
		}
		a.Close()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func listRules(a *app, out io.Writer) error {
	cat, err := rules.LoadCatalog(a.settings.Rules.Path)
	if err != nil {
		return err
	}
	if a.log.Headless() {
		out = io.Discard
	}

	source := a.settings.Rules.Path
	if source == "" {
		source = "built-in"
	}
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(out, "Rule catalog: %s\n", source)

	matcher := detect.FrameworkMatcher{DepFolders: cat.DependencyFolders()}
	fmt.Fprintf(out, "\n%s\n", cyan("Frameworks"))
	for _, r := range cat.Frameworks {
		fmt.Fprintf(out, "  %-12s requires %-3d %s\n", r.Name, matcher.Required(r), describe(r))
	}

	fmt.Fprintf(out, "\n%s (threshold %d)\n", cyan("Vanilla"), a.settings.Rules.Threshold)
	for _, r := range cat.Vanilla {
		fmt.Fprintf(out, "  %-12s %s\n", r.Name, describe(r))
	}

	if deps := cat.DependencyFolders(); len(deps) > 0 {
		fmt.Fprintf(out, "\nDependency folders: %s\n", strings.Join(deps, ", "))
	}
	for _, sh := range cat.Shadowed() {
		a.log.Warn("Framework rule %s qualifies wherever %s does; once in history it claims %s projects", sh.Rule, sh.By, sh.By)
	}
	return nil
}

// describe summarizes the criteria of a rule on one line.
func describe(r *rules.Rule) string {
	var parts []string
	for _, f := range r.Detect.Files {
		s := strings.Join(f.Candidates, "|")
		if f.Pattern != "" {
			s += fmt.Sprintf(" ~ %q", f.Pattern)
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", s, f.Weight))
	}
	for _, f := range r.Detect.Folders {
		s := f.Name + "/"
		if len(f.Files) > 0 {
			s += "{" + strings.Join(f.Files, ",") + "}"
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", s, f.Weight))
	}
	for _, e := range r.Detect.Extensions {
		parts = append(parts, fmt.Sprintf("%s (%d/file)", strings.Join(e.Patterns, " "), e.Weight))
	}
	return strings.Join(parts, ", ")
}
