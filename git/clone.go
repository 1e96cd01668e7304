package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/git/internal/auth"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/git/internal/fsbridge"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/progress"
)

// StagingPrefix names the sibling directory a clone is staged in before it
// is moved to its destination.
const StagingPrefix = ".TEMP_CLONE_"

// Clone clones url into opts.Path on the OS filesystem. The clone is staged
// in a sibling directory first; when opts.Path does not exist the staging
// directory is renamed into place, otherwise its files are copied over the
// existing directory and the staging directory is removed.
func Clone(ctx context.Context, url string, opts *Options) (Outcome, error) {
	if opts == nil || opts.Path == "" {
		return CloneFailed, WrapError(ErrInvalidRepository, "path is required")
	}

	o := *opts
	o.FS = nil
	o.applyDefaults()

	dest := filepath.Clean(o.Path)
	parent := osfs.New(filepath.Dir(dest))
	base := filepath.Base(dest)
	staging := StagingPrefix + uuid.NewString()

	if err := parent.MkdirAll(staging, 0o755); err != nil {
		return CloneFailed, WrapError(err, "failed to create staging directory")
	}
	// After a rename the staging directory is gone and this is a no-op.
	defer func() {
		if err := util.RemoveAll(parent, staging); err != nil {
			o.Logger.Warn("Failed to remove {yellow}%s{white}: %s", staging, err.Error())
		}
	}()

	if err := cloneInto(ctx, url, parent, staging, &o); err != nil {
		return CloneFailed, err
	}

	if _, err := parent.Lstat(base); errors.Is(err, os.ErrNotExist) {
		if err := parent.Rename(staging, base); err != nil {
			return CloneFailed, WrapErrorf(err, "failed to move clone into %q", dest)
		}
		return CloneSuccess, nil
	}

	o.Logger.Info("Copying files into {cyan}%s{white}...", dest)

	src, err := parent.Chroot(staging)
	if err != nil {
		return CloneFailed, WrapError(err, "failed to open staging directory")
	}
	dst, err := parent.Chroot(base)
	if err != nil {
		return CloneFailed, WrapErrorf(err, "failed to open %q", dest)
	}

	if err := fsbridge.CopyTree(src, dst); err != nil {
		return CloneFailed, WrapErrorf(err, "failed to copy clone into %q", dest)
	}
	return CloneSuccess, nil
}

// cloneInto clones url into parent/dir and checks out HEAD's tree.
func cloneInto(ctx context.Context, url string, parent billy.Filesystem, dir string, o *Options) error {
	wt, err := parent.Chroot(dir)
	if err != nil {
		return WrapError(err, "failed to open staging directory")
	}
	dotGit, err := wt.Chroot(git.GitDirName)
	if err != nil {
		return WrapError(err, "failed to open staging git directory")
	}

	r := &Repo{options: *o, log: o.Logger, fs: wt}
	r.options.Path = filepath.Join(parent.Root(), dir)
	r.auth = auth.NewTokenProvider(o.Token).WithAllowedHosts(o.AllowedHosts...)

	repo, err := git.CloneContext(ctx, fsbridge.NewStorage(dotGit, o.StorerCacheSize), wt, &git.CloneOptions{
		URL:             url,
		RemoteName:      DefaultRemoteName,
		Auth:            r.authFor(url),
		InsecureSkipTLS: o.InsecureSkipTLS,
		NoCheckout:      true,
		Progress:        r.sideband("Cloning repository"),
	})
	if err != nil {
		return WrapErrorf(err, "failed to clone %s", url)
	}

	r.repo = repo
	if r.worktree, err = repo.Worktree(); err != nil {
		return WrapError(err, "failed to open worktree")
	}

	head, tree, err := r.headTree()
	if err != nil {
		return err
	}
	if head == nil {
		// Empty remote.
		return nil
	}

	reporter := progress.NewReporter(func(s progress.Sample) {
		o.Logger.Info("Checkout: {yellow}%d{white}/{yellow}%d {white}%s", s.Completed, s.Total, s.Bar())
	})
	observe := func(done, total uint64) { reporter.Observe(done, total) }

	if err := r.checkoutTree(ctx, nil, tree, checkoutOptions{Observe: observe}); err != nil {
		return err
	}
	return r.resetIndex(head.Hash)
}
