package git

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    func(t *testing.T) *Options
		wantErr bool
	}{
		{
			name: "existing repository",
			opts: func(t *testing.T) *Options {
				return &Options{Path: setupTestRepo(t).dir}
			},
		},
		{
			name: "plain directory",
			opts: func(t *testing.T) *Options {
				return &Options{Path: t.TempDir()}
			},
			wantErr: true,
		},
		{
			name: "missing directory",
			opts: func(t *testing.T) *Options {
				return &Options{Path: filepath.Join(t.TempDir(), "missing")}
			},
			wantErr: true,
		},
		{
			name: "no path",
			opts: func(t *testing.T) *Options {
				return &Options{}
			},
			wantErr: true,
		},
		{
			name: "negative cache size",
			opts: func(t *testing.T) *Options {
				return &Options{Path: setupTestRepo(t).dir, StorerCacheSize: -1}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(context.Background(), tt.opts(t))
			require.NotNil(t, r, "Open never returns nil")

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRepository)
				assert.False(t, r.Valid())
				return
			}
			assert.NoError(t, err)
			assert.True(t, r.Valid())
		})
	}
}

func TestTokenRestrictedToAllowedHosts(t *testing.T) {
	tr := setupTestRepo(t)

	r := tr.open(t, func(o *Options) {
		o.Token = "secret"
		o.AllowedHosts = []string{"*.example.com"}
	})
	assert.Nil(t, r.authFor("https://github.com/org/repo.git"))
	assert.NotNil(t, r.authFor("https://git.example.com/org/repo.git"))

	open := tr.open(t, func(o *Options) { o.Token = "secret" })
	assert.NotNil(t, open.authFor("https://github.com/org/repo.git"))
}

func TestOpenCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := Open(ctx, &Options{Path: setupTestRepo(t).dir})
	assert.ErrorIs(t, err, ErrInvalidRepository)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, r.Valid())
}

func TestInvalidHandleOutcomes(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, &Options{Path: t.TempDir()})
	require.Error(t, err)

	tests := []struct {
		name string
		run  func() (Outcome, error)
		want Outcome
	}{
		{"pull", func() (Outcome, error) { return r.Pull(ctx) }, HeadLookupFailed},
		{"checkout", func() (Outcome, error) { return r.Checkout(ctx, "master") }, TargetLookupFailed},
		{"add", func() (Outcome, error) { return r.Add(ctx, ".") }, AddFailed},
		{"commit", func() (Outcome, error) { return r.Commit(ctx, "msg", Signature{}) }, CommitFailed},
		{"push", func() (Outcome, error) { return r.Push(ctx) }, PushFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run()
			assert.Equal(t, tt.want, got)
			assert.ErrorIs(t, err, ErrInvalidRepository)
		})
	}

	assert.Empty(t, r.Branch(ctx))
	assert.Empty(t, r.ShortHash(ctx))
}

func TestBranchAndShortHash(t *testing.T) {
	ctx := context.Background()

	t.Run("unborn branch", func(t *testing.T) {
		r := setupTestRepo(t).open(t)
		assert.Equal(t, "master", r.Branch(ctx))
		assert.Empty(t, r.ShortHash(ctx))
	})

	t.Run("after commit", func(t *testing.T) {
		tr := setupTestRepo(t)
		tr.writeFile(t, "a.txt", "a")
		r := tr.open(t)

		outcome, err := r.Add(ctx, ".")
		require.NoError(t, err)
		require.Equal(t, AddSuccess, outcome)

		outcome, err = r.Commit(ctx, "first", Signature{})
		require.NoError(t, err)
		require.Equal(t, CommitSuccess, outcome)

		head := tr.headHash(t)
		assert.Equal(t, "master", r.Branch(ctx))
		assert.Equal(t, head.String()[:ShortHashLength], r.ShortHash(ctx))
		assert.Len(t, r.ShortHash(ctx), 7)
	})

	t.Run("detached", func(t *testing.T) {
		tr := setupTestRepoWithCommit(t)
		head := tr.headHash(t)
		require.NoError(t, tr.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, head)))

		r := tr.open(t)
		assert.Empty(t, r.Branch(ctx))
		assert.Equal(t, head.String()[:7], r.ShortHash(ctx))
	})

	t.Run("canceled context", func(t *testing.T) {
		r := setupTestRepoWithCommit(t).open(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Empty(t, r.Branch(canceled))
		assert.Empty(t, r.ShortHash(canceled))
	})
}

func TestOutcomeClass(t *testing.T) {
	tests := []struct {
		outcome Outcome
		class   Class
		ok      bool
	}{
		{FastForwardSuccess, ClassSuccess, true},
		{CloneSuccess, ClassSuccess, true},
		{UpToDate, ClassNoop, true},
		{NothingToPush, ClassNoop, true},
		{MergeConflictsFound, ClassConflict, false},
		{OriginLookupFailed, ClassFailure, false},
		{CloneFailed, ClassFailure, false},
		{Outcome("SOMETHING_ELSE"), ClassFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			assert.Equal(t, tt.class, tt.outcome.Class())
			assert.Equal(t, tt.ok, tt.outcome.OK())
		})
	}

	assert.Equal(t, "conflict", ClassConflict.String())
	assert.Equal(t, "Unknown error", Message(nil))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
