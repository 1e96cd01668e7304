// Package git provides index and commit operations (add, commit).
package git

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// Add stages path. "." and "*" stage every change in the working copy,
// deletions included; any other path must exist in the working copy.
//
// When staging leaves the index tree equal to HEAD's tree or to the tree
// the index held before, the previous index is restored and NothingToAdd is
// returned.
func (r *Repo) Add(ctx context.Context, path string) (Outcome, error) {
	if !r.Valid() {
		return AddFailed, ErrInvalidRepository
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return RepositoryIndexFailed, WrapError(err, "failed to read index")
	}
	snapshot := cloneIndex(idx)

	all := path == "." || path == "*"
	if !all {
		if _, err := r.fs.Lstat(path); err != nil {
			return FileNotFound, WrapErrorf(ErrFileNotFound, "%q", path)
		}
	}

	if err := ctx.Err(); err != nil {
		return AddFailed, err
	}

	if all {
		err = r.worktree.AddWithOptions(&git.AddOptions{All: true})
	} else {
		_, err = r.worktree.Add(path)
	}
	if err != nil {
		return AddFailed, WrapErrorf(err, "failed to stage %q", path)
	}

	staged, err := r.repo.Storer.Index()
	if err != nil {
		return AddFailed, WrapError(err, "failed to read index")
	}

	after, err := r.writeTree(indexFiles(staged))
	if err != nil {
		return AddFailed, err
	}
	before, err := r.writeTree(indexFiles(snapshot))
	if err != nil {
		return AddFailed, err
	}
	_, head, err := r.headTree()
	if err != nil {
		return AddFailed, err
	}

	if after == treeHash(head) || after == before {
		if err := r.repo.Storer.SetIndex(snapshot); err != nil {
			return AddFailed, WrapError(err, "failed to restore index")
		}
		return NothingToAdd, nil
	}

	return AddSuccess, nil
}

// Commit records the index as a new commit on HEAD. Blank author fields
// fall back to the configured commit identity. The commit has HEAD as its
// only parent, or none on an unborn branch.
func (r *Repo) Commit(ctx context.Context, message string, author Signature) (Outcome, error) {
	if !r.Valid() {
		return CommitFailed, ErrInvalidRepository
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return RepositoryIndexFailed, WrapError(err, "failed to read index")
	}

	tree, err := r.writeTree(indexFiles(idx))
	if err != nil {
		return CommitFailed, err
	}

	parent, parentTree, err := r.headTree()
	if err != nil {
		return CommitFailed, err
	}

	if tree == treeHash(parentTree) {
		return NothingToCommit, nil
	}

	if r.options.ConventionalCommits {
		if err := validateMessage(message); err != nil {
			return CommitFailed, err
		}
	}

	sig := author.withDefaults(r.options.CommitIdentity)
	if sig.When.IsZero() {
		sig.When = time.Now()
	}

	r.logStats(ctx, parentTree, tree)

	var parents []plumbing.Hash
	if parent != nil {
		parents = append(parents, parent.Hash)
	}

	commit, err := r.writeCommit(message, sig, tree, parents...)
	if err != nil {
		return CommitFailed, err
	}

	if err := r.advanceHead(commit); err != nil {
		return CommitFailed, err
	}
	return CommitSuccess, nil
}

// validateMessage checks message against the Conventional Commits grammar.
func validateMessage(message string) error {
	m := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))
	if _, err := m.Parse([]byte(message)); err != nil {
		return WrapErrorf(ErrInvalidCommitMessage, "%v", err)
	}
	return nil
}

// logStats logs the file, insertion and deletion counts between from and
// the tree with id to. Errors are ignored.
func (r *Repo) logStats(ctx context.Context, from *object.Tree, to plumbing.Hash) {
	toTree, err := r.repo.TreeObject(to)
	if err != nil {
		return
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, toTree, nil)
	if err != nil {
		return
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return
	}

	var insertions, deletions int
	stats := patch.Stats()
	for _, s := range stats {
		insertions += s.Addition
		deletions += s.Deletion
	}

	r.log.Info("{yellow}%d{white} file%s changed, {yellow}%d{white} insertion%s(+), {yellow}%d{white} deletion%s(-)",
		len(stats), plural(len(stats)), insertions, plural(insertions), deletions, plural(deletions))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// writeCommit stores a commit object and returns its id.
func (r *Repo) writeCommit(message string, sig Signature, tree plumbing.Hash, parents ...plumbing.Hash) (plumbing.Hash, error) {
	who := object.Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
	commit := &object.Commit{
		Author:       who,
		Committer:    who,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to encode commit")
	}

	h, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, WrapError(err, "failed to store commit")
	}
	return h, nil
}

// advanceHead points HEAD's branch, or a detached HEAD, at commit.
func (r *Repo) advanceHead(commit plumbing.Hash) error {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return WrapError(err, "failed to read HEAD")
	}

	name := plumbing.HEAD
	if head.Type() == plumbing.SymbolicReference {
		name = head.Target()
	}

	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(name, commit)); err != nil {
		return WrapErrorf(err, "failed to update %s", name.Short())
	}
	return nil
}

func cloneIndex(idx *index.Index) *index.Index {
	c := *idx
	c.Entries = make([]*index.Entry, len(idx.Entries))
	for i, e := range idx.Entries {
		entry := *e
		c.Entries[i] = &entry
	}
	return &c
}
