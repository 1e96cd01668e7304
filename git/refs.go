// Package git provides revision and tag resolution.
package git

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// resolveTarget resolves a user supplied revision (branch, tag, hash,
// HEAD~1 style expressions). When semver tag resolution is enabled and the
// input is not a revision, it is tried as a version constraint.
func (r *Repo) resolveTarget(rev string) (plumbing.Hash, error) {
	if rev == "" {
		return plumbing.ZeroHash, WrapError(ErrInvalidRef, "revision cannot be empty")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err == nil {
		return *hash, nil
	}

	if r.options.SemverTags {
		if _, tagHash, semErr := r.resolveSemverTag(rev); semErr == nil {
			return tagHash, nil
		}
	}

	return plumbing.ZeroHash, WrapErrorf(ErrResolveFailed, "revision %q: %v", rev, err)
}

// resolveSemverTag returns the newest tag whose name parses as a semantic
// version satisfying constraint.
func (r *Repo) resolveSemverTag(constraint string) (plumbing.ReferenceName, plumbing.Hash, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return "", plumbing.ZeroHash, WrapErrorf(ErrInvalidRef, "constraint %q", constraint)
	}

	tags, err := r.repo.Tags()
	if err != nil {
		return "", plumbing.ZeroHash, WrapError(err, "failed to list tags")
	}
	defer tags.Close()

	var (
		bestName plumbing.ReferenceName
		bestHash plumbing.Hash
		best     *semver.Version
	)
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		v, verr := semver.NewVersion(ref.Name().Short())
		if verr != nil || !c.Check(v) {
			return nil
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestName = ref.Name()
			bestHash = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return "", plumbing.ZeroHash, WrapError(err, "failed to iterate tags")
	}

	if best == nil {
		return "", plumbing.ZeroHash, WrapErrorf(ErrResolveFailed, "no tag satisfies %q", constraint)
	}

	commit, err := r.peelToCommit(bestHash)
	if err != nil {
		return "", plumbing.ZeroHash, err
	}
	return bestName, commit.Hash, nil
}

// peelToCommit returns the commit h names, following annotated tags.
func (r *Repo) peelToCommit(h plumbing.Hash) (*object.Commit, error) {
	if commit, err := r.repo.CommitObject(h); err == nil {
		return commit, nil
	}

	tag, err := r.repo.TagObject(h)
	if err != nil {
		return nil, fmt.Errorf("object %s is neither a commit nor a tag: %w", h, err)
	}

	commit, err := tag.Commit()
	if err != nil {
		return nil, WrapErrorf(err, "tag %s does not point at a commit", tag.Name)
	}
	return commit, nil
}
