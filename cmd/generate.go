package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/featureguard/internal/config"
	"github.com/conneroisu/featureguard/internal/services"
)

var generateDryRun bool

var generateCmd = &cobra.Command{
	Use:     "generate [dir]",
	Aliases: []string{"gen", "g"},
	Short:   "Generate build-constrained check files",
	Long: `Scan dir (default: current directory) for featureguard directives, add the
sets declared in the manifest and write one check file per pair of mutually
exclusive tags, plus one coverage check per exactly-one-of set.

Generated files left over from earlier runs are removed. Files whose content
did not change are not rewritten.

Examples:
  featureguard generate
  featureguard generate ./internal/db --dry-run

In a package:
  //go:generate featureguard generate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVarP(&generateDryRun, "dry-run", "n", false, "Print the files that would change without touching them")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	svc := services.NewGuardService(cfg, rootDir(args), newLogger(cmd))
	result, err := svc.Generate(commandContext(cmd), services.GenerateOptions{DryRun: generateDryRun})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verb, removed := "wrote", "removed"
	if generateDryRun {
		verb, removed = "would write", "would remove"
	}
	for _, path := range result.Written {
		fmt.Fprintf(out, "%s %s\n", verb, filepath.ToSlash(path))
	}
	for _, path := range result.Removed {
		fmt.Fprintf(out, "%s %s\n", removed, filepath.ToSlash(path))
	}

	fmt.Fprintf(out, "%d set(s) in %d package(s): %d check(s), %d written, %d removed, %d unchanged\n",
		result.Sets, result.Packages, result.Checks,
		len(result.Written), len(result.Removed), len(result.Unchanged))

	return nil
}
