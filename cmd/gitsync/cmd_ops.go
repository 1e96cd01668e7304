package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/engine"
)

// failures counts completion events whose outcome is neither a success nor
// a no-op.
type failures struct {
	mu     sync.Mutex
	events []engine.Event
}

func (f *failures) record(ev engine.Event) {
	if ev.Outcome.OK() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *failures) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch len(f.events) {
	case 0:
		return nil
	case 1:
		ev := f.events[0]
		return fmt.Errorf("%s %s: %s", ev.Op, ev.Path, ev.Outcome)
	default:
		return fmt.Errorf("%d operations failed", len(f.events))
	}
}

// runOnce submits a single operation and waits for it.
func runOnce(cmd *cobra.Command, submit func(*engine.Engine) (string, error)) error {
	var failed failures
	e, err := openEngine(cmd, failed.record)
	if err != nil {
		return err
	}

	if _, err := submit(e); err != nil {
		_ = closeEngine(e)
		return err
	}
	if err := closeEngine(e); err != nil {
		return err
	}
	return failed.err()
}

func newCloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone <url> <dir>",
		Short: "Clone a repository into a directory below the root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, func(e *engine.Engine) (string, error) {
				return e.Clone(args[0], args[1])
			})
		},
	}
}

func newPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <dir>",
		Short: "Fetch origin and fast-forward or merge the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, func(e *engine.Engine) (string, error) {
				return e.Pull(args[0])
			})
		},
	}
}

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <dir> <rev>",
		Short: "Switch the working copy to a branch, tag or commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, func(e *engine.Engine) (string, error) {
				return e.Checkout(args[0], args[1])
			})
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <dir> <path>",
		Short: `Stage a path, or every change with "."`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, func(e *engine.Engine) (string, error) {
				return e.Add(args[0], args[1])
			})
		},
	}
}

func newCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit <dir> <message>",
		Short: "Record the staged changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("author-name")
			email, _ := cmd.Flags().GetString("author-email")
			return runOnce(cmd, func(e *engine.Engine) (string, error) {
				return e.Commit(args[0], args[1], name, email)
			})
		},
	}
	cmd.Flags().String("author-name", "", "Author name, defaults to the configured identity")
	cmd.Flags().String("author-email", "", "Author email, defaults to the configured identity")
	return cmd
}

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <dir>",
		Short: "Push the current branch to origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, func(e *engine.Engine) (string, error) {
				return e.Push(args[0])
			})
		},
	}
}
