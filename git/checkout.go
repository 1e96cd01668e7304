package git

import (
	"context"
	"errors"
	"io"
	"os"
	"path"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Checkout makes the working copy match rev. When a local branch named
// exactly rev exists HEAD is attached to it, otherwise HEAD is detached at
// the resolved commit. Failing to attach HEAD is logged, not reported.
//
// Local modifications to files the checkout would touch make it fail with
// CheckoutFailed and ErrUnstagedChanges; nothing is written in that case.
func (r *Repo) Checkout(ctx context.Context, rev string) (Outcome, error) {
	if !r.Valid() {
		return TargetLookupFailed, ErrInvalidRepository
	}

	hash, err := r.resolveTarget(rev)
	if err != nil {
		return TargetLookupFailed, err
	}

	target, err := r.peelToCommit(hash)
	if err != nil {
		return TreeIndexFailed, err
	}

	targetTree, err := target.Tree()
	if err != nil {
		return TreeIndexFailed, WrapError(err, "failed to read target tree")
	}

	_, current, err := r.headTree()
	if err != nil {
		return CheckoutFailed, err
	}

	if err := r.checkoutTree(ctx, current, targetTree, checkoutOptions{Safe: true}); err != nil {
		return CheckoutFailed, err
	}

	// Detach first so the index reset never moves a branch.
	detached := plumbing.NewHashReference(plumbing.HEAD, target.Hash)
	if err := r.repo.Storer.SetReference(detached); err != nil {
		return CheckoutFailed, WrapError(err, "failed to update HEAD")
	}

	if err := r.worktree.Reset(&git.ResetOptions{Commit: target.Hash, Mode: git.MixedReset}); err != nil {
		return CheckoutFailed, WrapError(err, "failed to update index")
	}

	branch := plumbing.NewBranchReferenceName(rev)
	if _, err := r.repo.Reference(branch, false); err == nil {
		if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch)); err != nil {
			r.log.Warn("Failed to attach HEAD to {cyan}%s{white}: %s", branch.Short(), err.Error())
		}
	}

	return CheckoutSuccess, nil
}

// checkoutOptions controls checkoutTree.
type checkoutOptions struct {
	// Safe refuses to touch paths with local modifications or to overwrite
	// untracked files.
	Safe bool

	// Observe is called after each path is written or removed.
	Observe func(done, total uint64)
}

// checkoutTree rewrites the working copy from tree from to tree to. Only
// paths that differ between the two trees are touched; untracked files are
// left alone. The index and HEAD are not updated.
func (r *Repo) checkoutTree(ctx context.Context, from, to *object.Tree, opts checkoutOptions) error {
	changes, err := object.DiffTreeWithOptions(ctx, from, to, nil)
	if err != nil {
		return WrapError(err, "failed to diff trees")
	}

	if opts.Safe {
		if err := r.checkConflicts(changes); err != nil {
			return err
		}
	}

	var (
		deletes []*object.Change
		writes  []*object.Change
	)
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return WrapError(err, "failed to classify change")
		}
		if action == merkletrie.Delete {
			deletes = append(deletes, ch)
			continue
		}
		writes = append(writes, ch)
	}

	total := uint64(len(changes))
	var done uint64
	step := func() {
		done++
		if opts.Observe != nil {
			opts.Observe(done, total)
		}
	}

	for _, ch := range deletes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.removeFile(ch.From.Name); err != nil {
			return err
		}
		step()
	}

	for _, ch := range writes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.writeFile(ch.To.Name, ch.To.TreeEntry); err != nil {
			return err
		}
		step()
	}

	return nil
}

// checkConflicts fails with ErrUnstagedChanges when a change would discard
// a local modification or overwrite an untracked file.
func (r *Repo) checkConflicts(changes object.Changes) error {
	if len(changes) == 0 {
		return nil
	}

	status, err := r.worktree.Status()
	if err != nil {
		return WrapError(err, "failed to read worktree status")
	}

	for _, ch := range changes {
		for _, name := range []string{ch.From.Name, ch.To.Name} {
			if name == "" {
				continue
			}

			s, ok := status[name]
			if ok && s.Staging == git.Untracked && s.Worktree == git.Untracked {
				return WrapErrorf(ErrUnstagedChanges, "untracked file %q would be overwritten", name)
			}
			if ok && (s.Staging != git.Unmodified || s.Worktree != git.Unmodified) {
				return WrapErrorf(ErrUnstagedChanges, "local changes to %q would be overwritten", name)
			}

			// Ignored files never show up in status.
			if !ok && ch.From.Name == "" {
				if _, err := r.fs.Lstat(name); err == nil {
					return WrapErrorf(ErrUnstagedChanges, "untracked file %q would be overwritten", name)
				}
			}
		}
	}
	return nil
}

func (r *Repo) removeFile(name string) error {
	if err := r.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return WrapErrorf(err, "failed to remove %q", name)
	}

	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		entries, err := r.fs.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := r.fs.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

func (r *Repo) writeFile(name string, entry object.TreeEntry) (err error) {
	if err := r.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return WrapErrorf(err, "failed to create directory for %q", name)
	}

	if entry.Mode == filemode.Submodule {
		return r.fs.MkdirAll(name, 0o755)
	}

	if err := r.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return WrapErrorf(err, "failed to replace %q", name)
	}

	blob, err := r.repo.BlobObject(entry.Hash)
	if err != nil {
		return WrapErrorf(err, "failed to read blob for %q", name)
	}

	src, err := blob.Reader()
	if err != nil {
		return WrapErrorf(err, "failed to open blob for %q", name)
	}
	defer src.Close()

	if entry.Mode == filemode.Symlink {
		target, err := io.ReadAll(src)
		if err != nil {
			return WrapErrorf(err, "failed to read link target for %q", name)
		}
		return WrapErrorf(r.fs.Symlink(string(target), name), "failed to create symlink %q", name)
	}

	mode, err := entry.Mode.ToOSFileMode()
	if err != nil {
		return WrapErrorf(err, "unsupported mode for %q", name)
	}

	dst, err := r.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return WrapErrorf(err, "failed to create %q", name)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = WrapErrorf(cerr, "failed to close %q", name)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return WrapErrorf(err, "failed to write %q", name)
	}
	return nil
}
