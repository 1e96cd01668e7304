// Package git provides the repository operations behind gitsync.
// Each operation runs against a Repo handle opened for a single call and
// reports exactly one Outcome.
package git

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/git/internal/auth"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/git/internal/fsbridge"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/logging"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultRemoteName is the remote every network operation uses.
	DefaultRemoteName = "origin"

	// DefaultDiffSummaryLimit is the entry count above which a diff summary
	// collapses to a single "Fast-forward" line.
	DefaultDiffSummaryLimit = 200

	// MergeMessage is the message of commits created by Pull.
	MergeMessage = "Merge remote changes"
)

var (
	// DefaultMergeIdentity signs merge commits created by Pull.
	DefaultMergeIdentity = Signature{Name: "GMSV-GIT", Email: "server@local"}

	// DefaultCommitIdentity fills in a blank author name or email on Commit.
	DefaultCommitIdentity = Signature{Name: "server", Email: "server@local"}
)

// Options configures how a repository handle is opened and how its
// operations behave.
type Options struct {
	// Path is the working copy root on disk. It is used for logging and,
	// when FS is nil, to build an OS filesystem.
	Path string

	// FS optionally replaces the OS filesystem rooted at Path.
	FS billy.Filesystem

	// Token authenticates HTTP(S) remotes as user "git". Empty means
	// anonymous access.
	Token string

	// AllowedHosts limits which HTTP(S) hosts receive Token. Patterns may
	// carry one leading "*." or trailing ".*" wildcard. Empty sends the
	// token to every HTTP(S) remote.
	AllowedHosts []string

	// InsecureSkipTLS disables certificate verification for HTTPS remotes.
	InsecureSkipTLS bool

	// StorerCacheSize sets the LRU objects cache entries.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// Logger receives progress, diff summaries and commit statistics.
	// Defaults to a no-op logger.
	Logger logging.Logger

	// MergeIdentity signs merge commits. Blank fields fall back to
	// DefaultMergeIdentity.
	MergeIdentity Signature

	// CommitIdentity fills in blank author fields on Commit. Blank fields
	// fall back to DefaultCommitIdentity.
	CommitIdentity Signature

	// ConventionalCommits rejects commit messages that are not valid
	// Conventional Commits.
	ConventionalCommits bool

	// SemverTags lets Checkout resolve a semantic version constraint to the
	// newest matching tag when the input is not a revision.
	SemverTags bool

	// DiffSummaryLimit overrides DefaultDiffSummaryLimit when positive.
	DiffSummaryLimit int
}

// Validate checks that the Options are usable.
func (o *Options) Validate() error {
	if o.Path == "" && o.FS == nil {
		return WrapError(ErrInvalidRepository, "path is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRepository, "StorerCacheSize cannot be negative")
	}

	if o.DiffSummaryLimit < 0 {
		return WrapError(ErrInvalidRepository, "DiffSummaryLimit cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	if o.DiffSummaryLimit == 0 {
		o.DiffSummaryLimit = DefaultDiffSummaryLimit
	}

	if o.Logger == nil {
		o.Logger = logging.Nop()
	}

	o.MergeIdentity = o.MergeIdentity.withDefaults(DefaultMergeIdentity)
	o.CommitIdentity = o.CommitIdentity.withDefaults(DefaultCommitIdentity)
}

// Signature identifies the author and committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

func (s Signature) withDefaults(d Signature) Signature {
	if s.Name == "" {
		s.Name = d.Name
	}
	if s.Email == "" {
		s.Email = d.Email
	}
	return s
}

// Repo is a handle on one working copy. A Repo is either fully valid or
// invalid; operations on an invalid Repo return their failure outcome
// without touching disk.
//
// A Repo is not safe for concurrent use. Callers serialize operations on
// the same path.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	fs       billy.Filesystem
	options  Options
	log      logging.Logger
	auth     auth.Provider
}

// Open opens the existing repository at opts.Path. It never creates one.
//
// The returned Repo is never nil. When err is non-nil the Repo is invalid
// and err wraps ErrInvalidRepository.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if opts == nil {
		opts = &Options{}
	}

	o := *opts
	o.applyDefaults()

	r := &Repo{
		options: o,
		log:     o.Logger,
		auth:    auth.NewTokenProvider(o.Token).WithAllowedHosts(o.AllowedHosts...),
	}

	if err := opts.Validate(); err != nil {
		return r, WrapError(err, "invalid options")
	}

	if err := ctx.Err(); err != nil {
		return r, fmt.Errorf("%w: %w", ErrInvalidRepository, err)
	}

	worktreeFS := o.FS
	if worktreeFS == nil {
		worktreeFS = osfs.New(o.Path)
	}

	if fi, err := worktreeFS.Stat(git.GitDirName); err != nil || !fi.IsDir() {
		return r, fmt.Errorf("%w: no %s directory in %q", ErrInvalidRepository, git.GitDirName, o.Path)
	}

	dotGitFS, err := worktreeFS.Chroot(git.GitDirName)
	if err != nil {
		return r, fmt.Errorf("%w: failed to access %s directory: %w", ErrInvalidRepository, git.GitDirName, err)
	}

	storage := fsbridge.NewStorage(dotGitFS, o.StorerCacheSize)

	repo, err := git.Open(storage, worktreeFS)
	if err != nil {
		return r, fmt.Errorf("%w: failed to open repository: %w", ErrInvalidRepository, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return r, fmt.Errorf("%w: failed to get worktree: %w", ErrInvalidRepository, err)
	}

	r.repo = repo
	r.worktree = worktree
	r.fs = worktreeFS
	return r, nil
}

// Valid reports whether the repository was opened successfully.
func (r *Repo) Valid() bool {
	return r != nil && r.repo != nil && r.worktree != nil
}

// Path returns the working copy root the handle was opened for.
func (r *Repo) Path() string {
	return r.options.Path
}

// authFor returns the auth method for remoteURL, or nil for anonymous
// access.
//
//nolint:ireturn // go-git requires the transport.AuthMethod interface
func (r *Repo) authFor(remoteURL string) transport.AuthMethod {
	if r.auth == nil {
		return nil
	}
	method, err := r.auth.Method(remoteURL)
	if err != nil {
		r.log.Warn("Ignoring credentials for {cyan}%s{white}: %s", remoteURL, err.Error())
		return nil
	}
	return method
}
