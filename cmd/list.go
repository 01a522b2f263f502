package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/featureguard/internal/config"
	"github.com/conneroisu/featureguard/internal/services"
	"github.com/conneroisu/featureguard/pkg/exclusive"
)

var listFormat = newFormatValue("text", "text", "json", "yaml")

var listCmd = &cobra.Command{
	Use:     "list [dir]",
	Aliases: []string{"ls", "l"},
	Short:   "List flag sets and their checks",
	Long: `List every flag set declared below dir and in the manifest, with its mode,
flags, where it was declared and the checks it expands to. A set of n flags
has n*(n-1)/2 pairwise checks; exactly-one-of sets add one coverage check.

Examples:
  featureguard list
  featureguard list --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().VarP(listFormat, "format", "f", "Output format (text, json, yaml)")
}

// SetSummary describes one flag set for list output.
type SetSummary struct {
	Package string            `json:"package" yaml:"package"`
	Dir     string            `json:"dir" yaml:"dir"`
	Name    string            `json:"name" yaml:"name"`
	Mode    exclusive.Mode    `json:"mode" yaml:"mode"`
	Flags   []string          `json:"flags" yaml:"flags,flow"`
	Source  string            `json:"source" yaml:"source"`
	Pairs   int               `json:"pairs" yaml:"pairs"`
	Checks  []exclusive.Check `json:"checks" yaml:"checks"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	root := rootDir(args)
	svc := services.NewGuardService(cfg, root, newLogger(cmd))
	targets, err := svc.Targets(commandContext(cmd))
	if err != nil {
		return err
	}

	var summaries []SetSummary
	for _, t := range targets {
		dir, err := filepath.Rel(root, t.Dir)
		if err != nil {
			dir = t.Dir
		}
		for i, set := range t.Sets {
			summaries = append(summaries, SetSummary{
				Package: t.Package,
				Dir:     filepath.ToSlash(dir),
				Name:    set.Name,
				Mode:    set.Mode,
				Flags:   set.Flags,
				Source:  t.Sources[i],
				Pairs:   exclusive.PairCount(len(set.Flags)),
				Checks:  set.Checks(),
			})
		}
	}

	out := cmd.OutOrStdout()
	if listFormat.value != "text" {
		if summaries == nil {
			summaries = []SetSummary{}
		}
		return writeStructured(out, listFormat.value, summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No flag sets found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SET\tPACKAGE\tMODE\tFLAGS\tCHECKS\tSOURCE")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.Name, s.Dir, s.Mode, exclusive.QuoteJoin(s.Flags), len(s.Checks), s.Source)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d set(s)\n", len(summaries))
	return nil
}
