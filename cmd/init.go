package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/featureguard/internal/config"
	"github.com/conneroisu/featureguard/pkg/exclusive"
)

var (
	initForce   bool
	initExample bool
	initPackage string
	initOutput  string
)

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a starter .featureguard.yml",
	Long: `Write a .featureguard.yml manifest with the default settings to the current
directory. An existing manifest is only replaced with --force.

Examples:
  featureguard init
  featureguard init --example --package features --output ./internal/features`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing manifest")
	initCmd.Flags().BoolVar(&initExample, "example", false, "Include example flag sets")
	initCmd.Flags().StringVar(&initPackage, "package", "", "Package clause of generated files")
	initCmd.Flags().StringVar(&initOutput, "output", "", "Output directory of generated files")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.Package = initPackage
	if initOutput != "" {
		cfg.Output = initOutput
	}

	if initExample {
		cfg.Sets = []config.SetConfig{
			{Name: "tls", Mode: exclusive.ExactlyOne.String(), Flags: []string{"rustls", "nativetls"}},
			{Name: "log", Mode: exclusive.AtMostOne.String(), Flags: []string{"zap", "zerolog", "logrus"}},
		}
	}

	if result := config.Validate(cfg); result.HasErrors() {
		return fmt.Errorf("invalid manifest:\n%s", result.String())
	}

	if err := config.WriteFile(config.DefaultFileName, cfg, initForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.DefaultFileName)
	if cfg.Package == "" && len(cfg.Sets) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Set package if the output directory has no Go files yet")
	}
	return nil
}
