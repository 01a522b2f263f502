package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/featureguard/internal/config"
	"github.com/conneroisu/featureguard/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "featureguard",
	Short: "Compile-time checks for mutually exclusive build tags",
	Long: `featureguard turns declarations of mutually exclusive build tags into
generated Go files that break the build with a readable message whenever an
invalid combination of tags is selected.

Declare a set next to the code that needs it:

  //featureguard:none-or-one-of "zap", "zerolog"
  //featureguard:exactly-one-of "rustls", "nativetls"

or in .featureguard.yml, then run featureguard generate (typically through
go:generate). With at most one tag per set selected the generated files are
excluded from the build and cost nothing.

Quick Start:
  featureguard init               Write a starter manifest
  featureguard generate           Generate check files
  featureguard check --tags a,b   Validate a tag selection
  featureguard list               List flag sets and their checks`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .featureguard.yml, can also use FEATUREGUARD_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig points Viper at the manifest.
//
// Priority (highest to lowest):
//  1. --config flag
//  2. FEATUREGUARD_CONFIG_FILE environment variable
//  3. .featureguard.yml in the current directory
//
// A missing manifest is not an error; sets can come from source directives
// alone.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("FEATUREGUARD_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.DefaultFileName, ".yml"))
	}

	viper.SetEnvPrefix("FEATUREGUARD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		newLogger(rootCmd).Debug(context.Background(), "using config file", "path", viper.ConfigFileUsed())
	}
}

// newLogger builds the logger from the persistent log flags. Logs go to the
// command's error stream.
func newLogger(cmd *cobra.Command) logging.Logger {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = logging.LevelWarn
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    viper.GetString("log-format"),
		Output:    cmd.ErrOrStderr(),
		Component: "cli",
	})
}

// rootDir returns the optional directory argument.
func rootDir(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return "."
}

// commandContext returns the command's context, or a background context when
// the command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
