package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/featureguard/internal/buildtags"
	"github.com/conneroisu/featureguard/internal/config"
	"github.com/conneroisu/featureguard/internal/services"
)

var (
	checkTags   tagsValue
	checkFormat = newFormatValue("text", "text", "json", "yaml")
)

var checkCmd = &cobra.Command{
	Use:     "check [dir]",
	Aliases: []string{"c"},
	Short:   "Validate a build tag selection against all flag sets",
	Long: `Evaluate every flag set found below dir and in the manifest against a
build tag selection and report each violation with the message the compiler
would print.

Tags come from --tags and from -tags= in the GOFLAGS environment variable.
The command exits with status 1 when any set is violated.

Examples:
  featureguard check --tags rustls,postgres
  GOFLAGS=-tags=rustls featureguard check --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Var(&checkTags, "tags", "Build tags, comma or space separated (repeatable)")
	checkCmd.Flags().VarP(checkFormat, "format", "f", "Output format (text, json, yaml)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	env := buildtags.NewEnvironment(checkTags.tags, os.Getenv("GOFLAGS"))

	svc := services.NewGuardService(cfg, rootDir(args), newLogger(cmd))
	result, err := svc.Check(commandContext(cmd), env.Predicate(), env.Tags())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if checkFormat.value != "text" {
		if err := writeStructured(out, checkFormat.value, result); err != nil {
			return err
		}
	} else {
		for _, v := range result.Violations {
			fmt.Fprintf(out, "%s: set %s: %s\n", v.Source, v.Set, v.Message)
		}
		if len(result.Violations) == 0 {
			fmt.Fprintf(out, "ok: %d set(s) satisfied by tags %v\n", result.Sets, result.Tags)
		}
	}

	if n := len(result.Violations); n > 0 {
		return fmt.Errorf("%d feature violation(s)", n)
	}
	return nil
}
