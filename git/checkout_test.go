package git

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTwoCommits returns a repository where test.txt changes between the
// first and second commit and added.txt only exists in the second.
func setupTwoCommits(t *testing.T) (tr *testRepo, first, second plumbing.Hash) {
	t.Helper()

	tr = setupTestRepoWithCommit(t)
	first = tr.headHash(t)

	tr.writeFile(t, "test.txt", "second content")
	tr.writeFile(t, "nested/added.txt", "added")
	second = tr.commitAll(t, "Second commit")
	return tr, first, second
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("hash detaches HEAD", func(t *testing.T) {
		tr, first, _ := setupTwoCommits(t)
		r := tr.open(t)

		outcome, err := r.Checkout(ctx, first.String())
		require.NoError(t, err)
		assert.Equal(t, CheckoutSuccess, outcome)

		head := tr.head(t)
		assert.Equal(t, plumbing.HashReference, head.Type())
		assert.Equal(t, first, head.Hash())
		assert.Equal(t, "initial content", tr.readFile(t, "test.txt"))
		assert.False(t, tr.exists("nested/added.txt"))
		assert.False(t, tr.exists("nested"), "empty directories are pruned")
		assert.Empty(t, r.Branch(ctx))

		wt, err := tr.repo.Worktree()
		require.NoError(t, err)
		status, err := wt.Status()
		require.NoError(t, err)
		assert.True(t, status.IsClean(), "index matches the checked out commit: %s", status)
	})

	t.Run("branch name attaches HEAD", func(t *testing.T) {
		tr, first, second := setupTwoCommits(t)
		r := tr.open(t)

		_, err := r.Checkout(ctx, first.String())
		require.NoError(t, err)

		outcome, err := r.Checkout(ctx, "master")
		require.NoError(t, err)
		assert.Equal(t, CheckoutSuccess, outcome)

		head := tr.head(t)
		assert.Equal(t, plumbing.SymbolicReference, head.Type())
		assert.Equal(t, plumbing.Master, head.Target())
		assert.Equal(t, second, tr.headHash(t), "the branch is not moved")
		assert.Equal(t, "second content", tr.readFile(t, "test.txt"))
		assert.Equal(t, "added", tr.readFile(t, "nested/added.txt"))
		assert.Equal(t, "master", r.Branch(ctx))
	})

	t.Run("relative revision", func(t *testing.T) {
		tr, first, _ := setupTwoCommits(t)

		outcome, err := tr.open(t).Checkout(ctx, "HEAD~1")
		require.NoError(t, err)
		assert.Equal(t, CheckoutSuccess, outcome)
		assert.Equal(t, first, tr.head(t).Hash())
	})

	t.Run("unknown revision", func(t *testing.T) {
		tr, _, second := setupTwoCommits(t)

		outcome, err := tr.open(t).Checkout(ctx, "does-not-exist")
		assert.Equal(t, TargetLookupFailed, outcome)
		assert.ErrorIs(t, err, ErrResolveFailed)
		assert.Equal(t, second, tr.headHash(t))
	})

	t.Run("local changes are never overwritten", func(t *testing.T) {
		tr, first, second := setupTwoCommits(t)
		tr.writeFile(t, "test.txt", "local edit")

		outcome, err := tr.open(t).Checkout(ctx, first.String())
		assert.Equal(t, CheckoutFailed, outcome)
		assert.ErrorIs(t, err, ErrUnstagedChanges)
		assert.Equal(t, "local edit", tr.readFile(t, "test.txt"))
		assert.Equal(t, second, tr.headHash(t))
		assert.Equal(t, plumbing.SymbolicReference, tr.head(t).Type())
	})

	t.Run("untracked files survive", func(t *testing.T) {
		tr, first, _ := setupTwoCommits(t)
		tr.writeFile(t, "scratch.txt", "mine")

		outcome, err := tr.open(t).Checkout(ctx, first.String())
		require.NoError(t, err)
		assert.Equal(t, CheckoutSuccess, outcome)
		assert.Equal(t, "mine", tr.readFile(t, "scratch.txt"))
	})

	t.Run("untracked file in the way", func(t *testing.T) {
		tr, first, _ := setupTwoCommits(t)
		r := tr.open(t)

		_, err := r.Checkout(ctx, first.String())
		require.NoError(t, err)
		tr.writeFile(t, "nested/added.txt", "untracked")

		outcome, err := r.Checkout(ctx, "master")
		assert.Equal(t, CheckoutFailed, outcome)
		assert.ErrorIs(t, err, ErrUnstagedChanges)
		assert.Equal(t, "untracked", tr.readFile(t, "nested/added.txt"))
	})

	t.Run("semver tag", func(t *testing.T) {
		tr, first, second := setupTwoCommits(t)
		_, err := tr.repo.CreateTag("v1.0.0", first, nil)
		require.NoError(t, err)
		_, err = tr.repo.CreateTag("v1.2.0", second, nil)
		require.NoError(t, err)

		r := tr.open(t, func(o *Options) { o.SemverTags = true })
		outcome, err := r.Checkout(ctx, "~1.0")
		require.NoError(t, err)
		assert.Equal(t, CheckoutSuccess, outcome)
		assert.Equal(t, first, tr.head(t).Hash())

		outcome, err = tr.open(t).Checkout(ctx, "^1.0")
		assert.Equal(t, TargetLookupFailed, outcome, "semver resolution is opt-in")
		assert.Error(t, err)
	})
}
