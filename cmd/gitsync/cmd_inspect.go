package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/engine"
)

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <dir>",
		Short: "Print the branch HEAD points at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd, args[0], (*engine.Engine).GetBranch)
		},
	}
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <dir>",
		Short: "Print the abbreviated commit id HEAD resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd, args[0], (*engine.Engine).GetShortHash)
		},
	}
}

func inspect(cmd *cobra.Command, dir string, get func(*engine.Engine, context.Context, string) (string, bool)) error {
	e, err := openEngine(cmd, nil)
	if err != nil {
		return err
	}
	defer func() { _ = closeEngine(e) }()

	value, ok := get(e, cmd.Context(), dir)
	if !ok {
		return fmt.Errorf("no value for %s", dir)
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", engine.Name, engine.Version)
		},
	}
}
