package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/featureguard/internal/version"
)

var (
	versionFormat = newFormatValue("text", "text", "json", "yaml")
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for featureguard including the version, git
commit, build time, Go version and target platform.

Examples:
  featureguard version
  featureguard version --short
  featureguard version --format json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().VarP(versionFormat, "format", "f", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch {
	case versionFormat.value != "text":
		return writeStructured(out, versionFormat.value, info)
	case versionShort:
		fmt.Fprintln(out, info.Short())
	default:
		fmt.Fprintln(out, info.String())
	}
	return nil
}
