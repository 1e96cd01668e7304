// Package git provides the tree-to-tree change summary logged by Pull.
package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/logging"
)

// ChangeStatus is the one-letter status of a DiffEntry.
type ChangeStatus byte

const (
	StatusModified ChangeStatus = 'M'
	StatusAdded    ChangeStatus = 'A'
	StatusDeleted  ChangeStatus = 'D'
	StatusRenamed  ChangeStatus = 'R'
	// StatusCopied exists for completeness; rename detection never reports copies.
	StatusCopied ChangeStatus = 'C'
)

// DiffEntry is one changed path.
type DiffEntry struct {
	Status  ChangeStatus
	OldPath string
	NewPath string
}

// Line renders the entry with color markup. Markup inside paths is escaped.
func (e DiffEntry) Line() string {
	oldPath, newPath := logging.Escape(e.OldPath), logging.Escape(e.NewPath)
	switch e.Status {
	case StatusRenamed, StatusCopied:
		return fmt.Sprintf(" %c {cyan}%s{white} -> {cyan}%s", e.Status, oldPath, newPath)
	case StatusDeleted:
		return fmt.Sprintf(" %c %s", e.Status, oldPath)
	default:
		return fmt.Sprintf(" %c %s", e.Status, newPath)
	}
}

// DiffSummary lists the changes between two commits in path order.
type DiffSummary struct {
	From    plumbing.Hash
	To      plumbing.Hash
	Entries []DiffEntry
	Limit   int
}

// Collapsed reports whether the summary has more entries than its limit
// and is rendered as a single "Fast-forward" line.
func (s DiffSummary) Collapsed() bool {
	return s.Limit > 0 && len(s.Entries) > s.Limit
}

// Lines renders the summary: an "Updating a..b" header followed by either
// every entry or, when collapsed, "Fast-forward".
func (s DiffSummary) Lines() []string {
	lines := []string{fmt.Sprintf("Updating {yellow}%s{white}..{yellow}%s", shortHash(s.From), shortHash(s.To))}
	if s.Collapsed() {
		return append(lines, "Fast-forward")
	}
	for _, e := range s.Entries {
		lines = append(lines, e.Line())
	}
	return lines
}

// diffSummary compares from's tree with to's tree with rename detection.
// A nil from is treated as an empty tree.
func (r *Repo) diffSummary(ctx context.Context, from, to *object.Commit) (DiffSummary, error) {
	s := DiffSummary{To: to.Hash, Limit: r.options.DiffSummaryLimit}

	var fromTree *object.Tree
	if from != nil {
		s.From = from.Hash
		t, err := from.Tree()
		if err != nil {
			return s, WrapError(err, "failed to read source tree")
		}
		fromTree = t
	}

	toTree, err := to.Tree()
	if err != nil {
		return s, WrapError(err, "failed to read target tree")
	}

	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return s, WrapError(err, "failed to diff trees")
	}

	s.Entries = make([]DiffEntry, 0, len(changes))
	for _, ch := range changes {
		e, err := diffEntry(ch)
		if err != nil {
			return s, err
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

func diffEntry(ch *object.Change) (DiffEntry, error) {
	action, err := ch.Action()
	if err != nil {
		return DiffEntry{}, WrapError(err, "failed to classify change")
	}

	switch action {
	case merkletrie.Insert:
		return DiffEntry{Status: StatusAdded, NewPath: ch.To.Name}, nil
	case merkletrie.Delete:
		return DiffEntry{Status: StatusDeleted, OldPath: ch.From.Name}, nil
	default:
		if ch.From.Name != ch.To.Name {
			return DiffEntry{Status: StatusRenamed, OldPath: ch.From.Name, NewPath: ch.To.Name}, nil
		}
		return DiffEntry{Status: StatusModified, OldPath: ch.From.Name, NewPath: ch.To.Name}, nil
	}
}

// logDiffSummary writes s to the handle's logger.
func (r *Repo) logDiffSummary(s DiffSummary) {
	for _, line := range s.Lines() {
		r.log.Info(line)
	}
}
