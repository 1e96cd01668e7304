// Package git provides branch and HEAD introspection.
package git

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLength is the number of hex characters ShortHash returns.
const ShortHashLength = 7

// Branch returns the short name of the branch HEAD points at. It returns
// "" when HEAD is detached, the handle is invalid or HEAD is unreadable.
//
// An unborn branch (a fresh repository without commits) still reports its
// name.
func (r *Repo) Branch(ctx context.Context) string {
	if !r.Valid() || ctx.Err() != nil {
		return ""
	}

	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return ""
	}

	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return ""
	}
	return head.Target().Short()
}

// ShortHash returns the first ShortHashLength hex characters of the commit
// HEAD resolves to, or "" on failure.
func (r *Repo) ShortHash(ctx context.Context) string {
	if !r.Valid() || ctx.Err() != nil {
		return ""
	}

	head, err := r.repo.Head()
	if err != nil {
		return ""
	}
	return shortHash(head.Hash())
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:ShortHashLength]
}

// currentBranch resolves HEAD to its branch reference name. It fails when
// HEAD is detached.
func (r *Repo) currentBranch() (plumbing.ReferenceName, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", WrapError(err, "failed to read HEAD")
	}

	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Target(), nil
}

// refHash resolves name to a hash, returning the zero hash when the
// reference does not exist.
func (r *Repo) refHash(name plumbing.ReferenceName) (plumbing.Hash, error) {
	ref, err := r.repo.Reference(name, true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// remoteTrackingName maps refs/heads/<b> to refs/remotes/origin/<b>.
func remoteTrackingName(branch plumbing.ReferenceName) plumbing.ReferenceName {
	return plumbing.NewRemoteReferenceName(DefaultRemoteName, branch.Short())
}
