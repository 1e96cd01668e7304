// Package git provides sentinel errors for repository operations.
// All errors can be checked using errors.Is() for programmatic handling.
package git

import (
	"errors"
	"fmt"
)

// ErrInvalidRepository is returned by every operation on a handle whose
// repository could not be opened.
var ErrInvalidRepository = errors.New("not a valid git repository")

// ErrRemoteMissing is returned when the origin remote is not configured.
var ErrRemoteMissing = errors.New("remote not found")

// ErrDetachedHead is returned when an operation needs a branch but HEAD
// points directly at a commit.
var ErrDetachedHead = errors.New("HEAD is detached")

// ErrMergeConflict is returned when both sides changed the same path
// differently.
var ErrMergeConflict = errors.New("merge conflict")

// ErrNoMergeBase is returned when two histories share no common ancestor.
var ErrNoMergeBase = errors.New("no merge base found")

// ErrUnstagedChanges is returned when a checkout would overwrite local
// modifications in the working copy.
var ErrUnstagedChanges = errors.New("worktree contains local changes")

// ErrFileNotFound is returned when Add targets a path missing from the
// working copy.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidCommitMessage is returned when commit message validation is
// enabled and the message does not parse.
var ErrInvalidCommitMessage = errors.New("invalid commit message")

// ErrInvalidRef is returned when a reference name or revision
// is malformed or invalid according to git's reference naming rules.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision cannot be resolved
// to a valid commit hash (e.g., branch/tag doesn't exist, invalid SHA).
var ErrResolveFailed = errors.New("cannot resolve revision")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
