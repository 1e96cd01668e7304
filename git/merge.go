// Package git provides merge analysis and a path-level three-way tree merge.
package git

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MergeAnalysis is a bit set describing how a target commit relates to
// HEAD.
type MergeAnalysis uint8

const (
	// AnalysisUpToDate means the target is already reachable from HEAD.
	AnalysisUpToDate MergeAnalysis = 1 << iota
	// AnalysisFastForward means HEAD is an ancestor of the target.
	AnalysisFastForward
	// AnalysisNormal means a merge commit can combine both histories. It is
	// also set whenever AnalysisFastForward is.
	AnalysisNormal
)

// Has reports whether every bit of flag is set.
func (a MergeAnalysis) Has(flag MergeAnalysis) bool {
	return a&flag == flag
}

// analyzeMerge classifies merging target into head.
func analyzeMerge(head, target *object.Commit) (MergeAnalysis, error) {
	if head.Hash == target.Hash {
		return AnalysisUpToDate, nil
	}

	merged, err := target.IsAncestor(head)
	if err != nil {
		return 0, WrapError(err, "failed to check ancestry")
	}
	if merged {
		return AnalysisUpToDate, nil
	}

	ff, err := head.IsAncestor(target)
	if err != nil {
		return 0, WrapError(err, "failed to check ancestry")
	}
	if ff {
		return AnalysisFastForward | AnalysisNormal, nil
	}
	return AnalysisNormal, nil
}

// treeMerge is the result of mergeTrees.
type treeMerge struct {
	Files     fileSet
	Conflicts []string
}

// mergeTrees merges ours and theirs against base path by path. A path
// changed on only one side takes that side. A path changed identically on
// both sides takes either. Anything else is a conflict; file contents are
// never merged.
func mergeTrees(base, ours, theirs fileSet) treeMerge {
	result := treeMerge{Files: make(fileSet, len(ours))}

	paths := make(map[string]struct{}, len(base)+len(ours)+len(theirs))
	for _, set := range []fileSet{base, ours, theirs} {
		for p := range set {
			paths[p] = struct{}{}
		}
	}

	for p := range paths {
		b, inBase := base[p]
		o, inOurs := ours[p]
		t, inTheirs := theirs[p]

		var (
			take    blobEntry
			present bool
		)
		switch {
		case inOurs == inTheirs && o == t:
			take, present = o, inOurs
		case inOurs == inBase && o == b:
			take, present = t, inTheirs
		case inTheirs == inBase && t == b:
			take, present = o, inOurs
		default:
			result.Conflicts = append(result.Conflicts, p)
			continue
		}

		if present {
			result.Files[p] = take
		}
	}

	sort.Strings(result.Conflicts)
	return result
}

// mergeBase returns the best common ancestor of a and b.
func mergeBase(a, b *object.Commit) (*object.Commit, error) {
	bases, err := a.MergeBase(b)
	if err != nil {
		return nil, WrapError(err, "failed to compute merge base")
	}
	if len(bases) == 0 {
		return nil, ErrNoMergeBase
	}
	return bases[0], nil
}

// mergeCommits performs the tree merge of theirs into ours and, when
// clean, writes the merged tree. The returned hash is zero when there are
// conflicts.
func (r *Repo) mergeCommits(ours, theirs *object.Commit) (plumbing.Hash, []string, error) {
	base, err := mergeBase(ours, theirs)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}

	sets := make([]fileSet, 0, 3)
	for _, c := range []*object.Commit{base, ours, theirs} {
		t, err := c.Tree()
		if err != nil {
			return plumbing.ZeroHash, nil, WrapErrorf(err, "failed to read tree of %s", shortHash(c.Hash))
		}
		files, err := flattenTree(t)
		if err != nil {
			return plumbing.ZeroHash, nil, err
		}
		sets = append(sets, files)
	}

	m := mergeTrees(sets[0], sets[1], sets[2])
	if len(m.Conflicts) > 0 {
		return plumbing.ZeroHash, m.Conflicts, nil
	}

	h, err := r.writeTree(m.Files)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	return h, nil, nil
}
