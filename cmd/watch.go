package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/featureguard/internal/config"
	"github.com/conneroisu/featureguard/internal/logging"
	"github.com/conneroisu/featureguard/internal/services"
	"github.com/conneroisu/featureguard/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:     "watch [dir]",
	Aliases: []string{"w"},
	Short:   "Regenerate checks when sources or the manifest change",
	Long: `Generate checks once, then watch the scanned directories and the manifest and
regenerate whenever a Go source file or the manifest changes. Generated files
and tests are ignored. Stop with Ctrl+C.

Examples:
  featureguard watch
  featureguard watch ./internal --debounce 500ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Delay before regenerating after a change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := rootDir(args)
	logger := newLogger(cmd)
	out := cmd.OutOrStdout()

	regenerate := func(ctx context.Context, cfg *config.Config) {
		result, err := services.NewGuardService(cfg, root, logger).Generate(ctx, services.GenerateOptions{})
		if err != nil {
			logger.Error(ctx, err, "regeneration failed")
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "%s regenerated: %d written, %d removed, %d unchanged\n",
			time.Now().Format("15:04:05"), len(result.Written), len(result.Removed), len(result.Unchanged))
	}

	regenerate(ctx, cfg)

	fw, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	manifest := manifestName()
	fw.AddFilter(watcher.AllOf(watcher.NoVendorFilter, watcher.NoGitFilter))
	fw.AddFilter(watcher.AnyOf(
		watcher.AllOf(watcher.GoFilter, watcher.NoTestFilter, watcher.NoPrefixFilter(cfg.Prefix)),
		watcher.NameFilter(manifest),
	))

	skip := func(name string) bool {
		for _, pattern := range append([]string{".*", "_*"}, cfg.Scan.Exclude...) {
			if ok, _ := filepath.Match(pattern, name); ok {
				return true
			}
		}
		return false
	}
	for _, p := range cfg.Scan.Paths {
		dir := p
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, p)
		}
		if err := fw.AddRecursive(dir, skip); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	if used := viper.ConfigFileUsed(); used != "" {
		if err := fw.AddPath(filepath.Dir(used)); err != nil {
			logger.Warn(ctx, err, "cannot watch manifest", "path", used)
		}
	}

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, e := range events {
			logger.Info(ctx, "file changed", "path", e.Path, "event", e.Type.String())
		}
		reloaded, err := reloadConfig(logger)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return err
		}
		regenerate(ctx, reloaded)
		return nil
	})

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(out, "watching %d directories, press Ctrl+C to stop\n", len(fw.WatchList()))
	<-ctx.Done()
	return nil
}

func manifestName() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return filepath.Base(used)
	}
	return config.DefaultFileName
}

// reloadConfig re-reads the manifest so edits made while watching apply.
func reloadConfig(logger logging.Logger) (*config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug(context.Background(), "configuration reloaded", "sets", len(cfg.Sets))
	return cfg, nil
}
