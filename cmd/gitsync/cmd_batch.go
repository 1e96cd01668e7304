package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/flynn/go-shlex"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/engine"
)

var errUsage = errors.New("usage")

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Read operations from stdin, one per line, and run them in the background",
		Long: `Each line names an operation and its arguments, split with shell quoting rules:

  clone <url> <dir>
  pull <dir>
  checkout <dir> <rev>
  add <dir> <path>
  commit <dir> <message> [name] [email]
  push <dir>
  branch <dir>
  hash <dir>

Blank lines and lines starting with # are ignored. Operations are submitted
without waiting; operations on the same directory run in order. branch and
hash are answered as soon as their line is read. The command
exits once stdin is exhausted and every operation has finished.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var failed failures
			e, err := openEngine(cmd, failed.record)
			if err != nil {
				return err
			}

			rejected := runBatch(cmd, e, cmd.InOrStdin())
			if err := closeEngine(e); err != nil {
				return err
			}
			if rejected > 0 {
				return fmt.Errorf("%d lines rejected", rejected)
			}
			return failed.err()
		},
	}
}

// runBatch submits every line of r and returns how many were rejected.
func runBatch(cmd *cobra.Command, e *engine.Engine, r io.Reader) int {
	rejected := 0
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := dispatchLine(cmd, e, line); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %v\n", n, err)
			rejected++
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "reading input: %v\n", err)
		rejected++
	}
	return rejected
}

func dispatchLine(cmd *cobra.Command, e *engine.Engine, line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", line, err)
	}
	if len(words) == 0 {
		return nil
	}

	op, args := words[0], words[1:]
	need := func(lo, hi int) error {
		if len(args) < lo || len(args) > hi {
			return fmt.Errorf("%w: %s takes %d to %d arguments, got %d", errUsage, op, lo, hi, len(args))
		}
		return nil
	}

	switch op {
	case "clone":
		if err := need(2, 2); err != nil {
			return err
		}
		_, err = e.Clone(args[0], args[1])
	case "pull":
		if err := need(1, 1); err != nil {
			return err
		}
		_, err = e.Pull(args[0])
	case "checkout":
		if err := need(2, 2); err != nil {
			return err
		}
		_, err = e.Checkout(args[0], args[1])
	case "add":
		if err := need(2, 2); err != nil {
			return err
		}
		_, err = e.Add(args[0], args[1])
	case "commit":
		if err := need(2, 4); err != nil {
			return err
		}
		args = append(args, "", "")
		_, err = e.Commit(args[0], args[1], args[2], args[3])
	case "push":
		if err := need(1, 1); err != nil {
			return err
		}
		_, err = e.Push(args[0])
	case "branch", "hash":
		if err := need(1, 1); err != nil {
			return err
		}
		get := e.GetBranch
		if op == "hash" {
			get = e.GetShortHash
		}
		value, ok := get(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("no %s for %s", op, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], value)
	default:
		return fmt.Errorf("%w: unknown operation %q", errUsage, op)
	}
	return err
}
