// Package git provides synchronization with the origin remote (pull, push).
package git

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/progress"
)

// Pull fetches origin and integrates the remote-tracking branch of the
// current branch, fast-forwarding when possible and creating a merge commit
// otherwise.
//
// Paths changed differently on both sides abort the merge with
// MergeConflictsFound; the working copy and history are left untouched.
func (r *Repo) Pull(ctx context.Context) (Outcome, error) {
	if !r.Valid() {
		return HeadLookupFailed, ErrInvalidRepository
	}

	head, err := r.repo.Head()
	if err != nil {
		return HeadLookupFailed, WrapError(err, "failed to resolve HEAD")
	}

	// A detached HEAD still reaches the origin lookup and fetch; it only
	// fails once a tracking branch is needed.
	branch, err := r.currentBranch()
	detached := errors.Is(err, ErrDetachedHead)
	if err != nil && !detached {
		return HeadLookupFailed, err
	}
	tracking := remoteTrackingName(branch)

	remote, err := r.origin()
	if err != nil {
		return OriginLookupFailed, err
	}

	if err := r.fetch(ctx, remote); err != nil {
		return RemoteFetchFailed, err
	}

	if detached {
		return HeadReadFailed, WrapError(ErrDetachedHead, "no remote-tracking branch for HEAD")
	}

	remoteRef, err := r.repo.Reference(tracking, true)
	if err != nil {
		return HeadReadFailed, WrapErrorf(err, "failed to read %s", tracking.Short())
	}

	theirs, err := r.repo.CommitObject(remoteRef.Hash())
	if err != nil {
		return HeadFetchFailed, WrapErrorf(err, "failed to read commit %s", shortHash(remoteRef.Hash()))
	}

	ours, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return HeadLookupFailed, WrapError(err, "failed to read HEAD commit")
	}

	analysis, err := analyzeMerge(ours, theirs)
	if err != nil {
		return MergeFailed, err
	}

	switch {
	case analysis.Has(AnalysisUpToDate):
		return UpToDate, nil
	case analysis.Has(AnalysisFastForward):
		if err := r.fastForward(ctx, branch, ours, theirs); err != nil {
			return FastForwardFailed, err
		}
		return FastForwardSuccess, nil
	case analysis.Has(AnalysisNormal):
		return r.merge(ctx, ours, theirs)
	default:
		return UpToDate, nil
	}
}

// fastForward moves branch from ours to theirs and updates the working copy.
func (r *Repo) fastForward(ctx context.Context, branch plumbing.ReferenceName, ours, theirs *object.Commit) error {
	r.summarize(ctx, ours, theirs)

	oursTree, err := ours.Tree()
	if err != nil {
		return WrapError(err, "failed to read HEAD tree")
	}
	theirsTree, err := theirs.Tree()
	if err != nil {
		return WrapError(err, "failed to read target tree")
	}

	if err := r.checkoutTree(ctx, oursTree, theirsTree, checkoutOptions{Safe: true}); err != nil {
		return err
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(branch, theirs.Hash)); err != nil {
		return WrapErrorf(err, "failed to update %s", branch.Short())
	}
	if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch)); err != nil {
		return WrapError(err, "failed to update HEAD")
	}

	return r.resetIndex(theirs.Hash)
}

// merge combines theirs into ours and records the result as a merge commit.
func (r *Repo) merge(ctx context.Context, ours, theirs *object.Commit) (Outcome, error) {
	r.summarize(ctx, ours, theirs)

	treeHash, conflicts, err := r.mergeCommits(ours, theirs)
	if err != nil {
		return MergeFailed, err
	}
	if len(conflicts) > 0 {
		for _, p := range conflicts {
			r.log.Warn(" C {red}%s", p)
		}
		return MergeConflictsFound, WrapErrorf(ErrMergeConflict, "%d conflicting path(s)", len(conflicts))
	}

	tree, err := r.repo.TreeObject(treeHash)
	if err != nil {
		return MergeFailed, WrapError(err, "failed to read merged tree")
	}
	oursTree, err := ours.Tree()
	if err != nil {
		return MergeFailed, WrapError(err, "failed to read HEAD tree")
	}

	if err := r.checkoutTree(ctx, oursTree, tree, checkoutOptions{Safe: true}); err != nil {
		return MergeFailed, err
	}

	sig := r.options.MergeIdentity
	if sig.When.IsZero() {
		sig.When = time.Now()
	}

	commit, err := r.writeCommit(MergeMessage, sig, treeHash, ours.Hash, theirs.Hash)
	if err != nil {
		return MergeFailed, err
	}

	if err := r.advanceHead(commit); err != nil {
		return MergeFailed, err
	}

	if err := r.resetIndex(commit); err != nil {
		return MergeFailed, err
	}
	return MergeSuccess, nil
}

// summarize logs the diff summary between two commits. Failures are logged
// and otherwise ignored.
func (r *Repo) summarize(ctx context.Context, from, to *object.Commit) {
	s, err := r.diffSummary(ctx, from, to)
	if err != nil {
		r.log.Warn("Failed to summarize changes: {red}%s", err.Error())
		return
	}
	r.logDiffSummary(s)
}

// resetIndex points the index (and HEAD's branch) at commit without
// touching the working copy.
func (r *Repo) resetIndex(commit plumbing.Hash) error {
	if err := r.worktree.Reset(&git.ResetOptions{Commit: commit, Mode: git.MixedReset}); err != nil {
		return WrapError(err, "failed to update index")
	}
	return nil
}

// Push pushes the current branch to the branch of the same name on origin.
// It returns NothingToPush without contacting the remote when the local
// branch already equals its remote-tracking branch.
func (r *Repo) Push(ctx context.Context) (Outcome, error) {
	if !r.Valid() {
		return PushFailed, ErrInvalidRepository
	}

	branch, err := r.currentBranch()
	if err != nil {
		return PushFailed, err
	}
	tracking := remoteTrackingName(branch)

	local, err := r.refHash(branch)
	if err != nil {
		return PushFailed, WrapErrorf(err, "failed to read %s", branch.Short())
	}
	old, err := r.refHash(tracking)
	if err != nil {
		return PushFailed, WrapErrorf(err, "failed to read %s", tracking.Short())
	}

	if !local.IsZero() && !old.IsZero() && local == old {
		return NothingToPush, nil
	}

	remote, err := r.origin()
	if err != nil {
		return OriginLookupFailed, err
	}

	url := remoteURL(remote)
	spec := config.RefSpec(fmt.Sprintf("%s:%s", branch, branch))

	err = remote.PushContext(ctx, &git.PushOptions{
		RemoteName:      DefaultRemoteName,
		RefSpecs:        []config.RefSpec{spec},
		Auth:            r.authFor(url),
		InsecureSkipTLS: r.options.InsecureSkipTLS,
		Progress:        r.sideband("Pushing"),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return PushFailed, WrapErrorf(err, "failed to push %s", branch.Short())
	}

	pushed, err := r.repo.Reference(branch, true)
	if err != nil {
		return PushFailed, WrapErrorf(err, "failed to read %s after push", branch.Short())
	}

	r.log.Info("To {cyan}%s", url)
	r.log.Info("   {cyan}%s{white}..{cyan}%s{white} {yellow}%s{white} -> {yellow}%s{white}",
		shortHash(old), shortHash(pushed.Hash()), branch.Short(), branch.Short())

	return PushSuccess, nil
}

// origin returns the origin remote.
func (r *Repo) origin() (*git.Remote, error) {
	remote, err := r.repo.Remote(DefaultRemoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil, WrapErrorf(ErrRemoteMissing, "remote %q", DefaultRemoteName)
		}
		return nil, WrapErrorf(err, "failed to read remote %q", DefaultRemoteName)
	}
	return remote, nil
}

// fetch updates the remote-tracking references of remote. An up to date
// remote is not an error.
func (r *Repo) fetch(ctx context.Context, remote *git.Remote) error {
	err := remote.FetchContext(ctx, &git.FetchOptions{
		RemoteName:      DefaultRemoteName,
		Auth:            r.authFor(remoteURL(remote)),
		InsecureSkipTLS: r.options.InsecureSkipTLS,
		Progress:        r.sideband("Fetching"),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return WrapErrorf(err, "failed to fetch %s", DefaultRemoteName)
	}
	return nil
}

// sideband returns a progress writer that logs throttled bars prefixed
// with label.
func (r *Repo) sideband(label string) *progress.SidebandWriter {
	return progress.NewSidebandWriter(func(phase string, s progress.Sample) {
		r.log.Info("%s: {gray}%s{white} {yellow}%s", label, phase, s.Bar())
	})
}

func remoteURL(remote *git.Remote) string {
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
