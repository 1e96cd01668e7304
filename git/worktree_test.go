package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("stage all is idempotent", func(t *testing.T) {
		tr := setupTestRepo(t)
		tr.writeFile(t, "a.txt", "a")
		tr.writeFile(t, "dir/b.txt", "b")
		r := tr.open(t)

		outcome, err := r.Add(ctx, ".")
		require.NoError(t, err)
		assert.Equal(t, AddSuccess, outcome)

		outcome, err = r.Add(ctx, ".")
		require.NoError(t, err)
		assert.Equal(t, NothingToAdd, outcome)

		outcome, err = r.Add(ctx, "*")
		require.NoError(t, err)
		assert.Equal(t, NothingToAdd, outcome)
	})

	t.Run("single path", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.writeFile(t, "test.txt", "changed")
		tr.writeFile(t, "other.txt", "other")
		r := tr.open(t)

		outcome, err := r.Add(ctx, "test.txt")
		require.NoError(t, err)
		assert.Equal(t, AddSuccess, outcome)

		idx, err := tr.repo.Storer.Index()
		require.NoError(t, err)
		_, err = idx.Entry("other.txt")
		assert.Error(t, err, "other.txt must stay unstaged")
	})

	t.Run("unchanged file", func(t *testing.T) {
		r := setupTestRepoWithCommit(t).open(t)

		outcome, err := r.Add(ctx, "test.txt")
		require.NoError(t, err)
		assert.Equal(t, NothingToAdd, outcome)
	})

	t.Run("missing file", func(t *testing.T) {
		r := setupTestRepoWithCommit(t).open(t)

		outcome, err := r.Add(ctx, "missing.txt")
		assert.Equal(t, FileNotFound, outcome)
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("deletions", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		require.NoError(t, os.Remove(filepath.Join(tr.dir, "test.txt")))
		r := tr.open(t)

		outcome, err := r.Add(ctx, ".")
		require.NoError(t, err)
		assert.Equal(t, AddSuccess, outcome)

		outcome, err = r.Commit(ctx, "remove test.txt", Signature{})
		require.NoError(t, err)
		assert.Equal(t, CommitSuccess, outcome)

		tree, err := tr.headCommit(t).Tree()
		require.NoError(t, err)
		_, err = tree.File("test.txt")
		assert.Error(t, err)
	})

	t.Run("reverting to HEAD restores index", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.writeFile(t, "test.txt", "changed")
		r := tr.open(t)

		outcome, err := r.Add(ctx, "test.txt")
		require.NoError(t, err)
		require.Equal(t, AddSuccess, outcome)

		tr.writeFile(t, "test.txt", "initial content")
		outcome, err = r.Add(ctx, "test.txt")
		require.NoError(t, err)
		assert.Equal(t, NothingToAdd, outcome)
	})
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing staged", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		before := tr.headHash(t)

		outcome, err := tr.open(t).Commit(ctx, "noop", Signature{})
		require.NoError(t, err)
		assert.Equal(t, NothingToCommit, outcome)
		assert.Equal(t, before, tr.headHash(t))
	})

	t.Run("empty unborn repository", func(t *testing.T) {
		outcome, err := setupTestRepo(t).open(t).Commit(ctx, "noop", Signature{})
		require.NoError(t, err)
		assert.Equal(t, NothingToCommit, outcome)
	})

	t.Run("root commit with default identity", func(t *testing.T) {
		tr := setupTestRepo(t)
		tr.writeFile(t, "a.txt", "a")
		r := tr.open(t)

		_, err := r.Add(ctx, ".")
		require.NoError(t, err)

		outcome, err := r.Commit(ctx, "first", Signature{})
		require.NoError(t, err)
		require.Equal(t, CommitSuccess, outcome)

		c := tr.headCommit(t)
		assert.Equal(t, "first", c.Message)
		assert.Empty(t, c.ParentHashes)
		assert.Equal(t, DefaultCommitIdentity.Name, c.Author.Name)
		assert.Equal(t, DefaultCommitIdentity.Email, c.Author.Email)

		outcome, err = r.Commit(ctx, "again", Signature{})
		require.NoError(t, err)
		assert.Equal(t, NothingToCommit, outcome)
	})

	t.Run("child commit with author", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		parent := tr.headHash(t)
		tr.writeFile(t, "test.txt", "second")
		r := tr.open(t)

		_, err := r.Add(ctx, "test.txt")
		require.NoError(t, err)

		outcome, err := r.Commit(ctx, "second", Signature{Name: "Jane", Email: ""})
		require.NoError(t, err)
		require.Equal(t, CommitSuccess, outcome)

		c := tr.headCommit(t)
		assert.Equal(t, []plumbing.Hash{parent}, c.ParentHashes)
		assert.Equal(t, "Jane", c.Author.Name)
		assert.Equal(t, "server@local", c.Author.Email)
		assert.Equal(t, "master", r.Branch(ctx))
	})

	t.Run("conventional commits", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		tr.writeFile(t, "test.txt", "second")
		r := tr.open(t, func(o *Options) { o.ConventionalCommits = true })

		_, err := r.Add(ctx, ".")
		require.NoError(t, err)

		outcome, err := r.Commit(ctx, "not conventional", Signature{})
		assert.Equal(t, CommitFailed, outcome)
		assert.ErrorIs(t, err, ErrInvalidCommitMessage)

		outcome, err = r.Commit(ctx, "fix: update test file", Signature{})
		require.NoError(t, err)
		assert.Equal(t, CommitSuccess, outcome)
	})
}
