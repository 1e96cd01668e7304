package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/config"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/engine"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gitsync",
		Short:         "Synchronize repositories below an application root",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Configuration file (.yaml or .cue)")
	cmd.PersistentFlags().String("root", "", "Application root, overrides the configuration")
	cmd.PersistentFlags().Int("workers", 0, "Repositories processed in parallel, overrides the configuration")
	cmd.PersistentFlags().String("log-level", "", "Log level: info, success, warn, error")

	cmd.AddCommand(
		newCloneCmd(),
		newPullCmd(),
		newCheckoutCmd(),
		newAddCmd(),
		newCommitCmd(),
		newPushCmd(),
		newBranchCmd(),
		newHashCmd(),
		newBatchCmd(),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig reads --config, or the discovered file, and applies flag
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	root, _ := cmd.Flags().GetString("root")
	workers, _ := cmd.Flags().GetInt("workers")
	level, _ := cmd.Flags().GetString("log-level")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.Discover()
	}
	if err != nil {
		return nil, err
	}

	if root != "" {
		cfg.Root = root
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if level != "" {
		cfg.Log.Level = level
	}
	return cfg, cfg.Validate()
}

// openEngine builds an engine from the command's configuration. done, when
// not nil, receives every completion event.
func openEngine(cmd *cobra.Command, done func(engine.Event)) (*engine.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	opts := []engine.Option{engine.WithLogger(engine.NewLogger(cfg.Log, cmd.ErrOrStderr()))}
	if done != nil {
		opts = append(opts, engine.WithCompletion(done))
	}
	return engine.New(cmd.Context(), cfg, opts...)
}

// closeEngine waits for every submitted task.
func closeEngine(e *engine.Engine) error {
	return e.Close(context.Background())
}
