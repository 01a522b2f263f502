package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/featureguard/internal/config"
	"github.com/conneroisu/featureguard/internal/services"
)

var explainFormat = newFormatValue("text", "text", "json", "yaml")

var explainCmd = &cobra.Command{
	Use:   "explain [build-output-file]",
	Short: "Map go build errors back to flag sets",
	Long: `Read the output of a failed go build from a file or standard input, pick out
the errors raised by generated checks and show which flag set declared them
and where.

Examples:
  go build -tags rustls,nativetls ./... 2>&1 | featureguard explain
  featureguard explain build.log --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().VarP(explainFormat, "format", "f", "Output format (text, json, yaml)")
}

func runExplain(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read build output: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	svc := services.NewGuardService(cfg, ".", newLogger(cmd))
	explanations, err := svc.Explain(commandContext(cmd), string(data))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if explainFormat.value != "text" {
		if explanations == nil {
			explanations = []services.Explanation{}
		}
		return writeStructured(out, explainFormat.value, explanations)
	}

	if len(explanations) == 0 {
		fmt.Fprintln(out, "No feature violations found")
		return nil
	}

	for _, e := range explanations {
		if loc := e.Location(); loc != "" {
			fmt.Fprintf(out, "%s: ", loc)
		}
		fmt.Fprintf(out, "%s violation: %s\n", e.Kind, e.Message)
		if e.Set != "" {
			fmt.Fprintf(out, "  declared by set %s at %s\n", e.Set, e.Source)
		} else {
			fmt.Fprintln(out, "  no matching flag set found; regenerate with featureguard generate")
		}
	}

	return nil
}
