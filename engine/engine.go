// Package engine is the entry point an embedding caller uses.
//
// Every mutating operation resolves its directory against the configured
// root, schedules a detached task and returns the task id immediately. The
// task opens a fresh repository handle, runs the operation and logs exactly
// one outcome message. GetBranch and GetShortHash run synchronously.
//
// An Engine owns its dispatcher. Close stops accepting work and waits for
// outstanding tasks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/config"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/credentials"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/dispatch"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/git"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/logging"
)

// Name is printed in the startup banner.
const Name = "gitsync"

// Version is overridden at link time.
var Version = "0.1.0-dev"

var (
	// ErrPathOutsideRoot is returned for directories that escape the root.
	ErrPathOutsideRoot = errors.New("path is outside the application root")

	// ErrClosed is returned by operations submitted after Close.
	ErrClosed = dispatch.ErrClosed
)

// Op names an entry point.
type Op string

const (
	OpClone    Op = "clone"
	OpPull     Op = "pull"
	OpCheckout Op = "checkout"
	OpAdd      Op = "add"
	OpCommit   Op = "commit"
	OpPush     Op = "push"
)

// Event describes a finished task.
type Event struct {
	ID      string
	Op      Op
	Path    string
	Outcome git.Outcome
	Err     error
}

// Option configures New.
type Option func(*Engine)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCredentials replaces the token provider built from the configuration.
func WithCredentials(p credentials.Provider) Option {
	return func(e *Engine) {
		if p != nil {
			e.creds = p
		}
	}
}

// WithCompletion registers fn to run after every task, on the task's
// goroutine.
func WithCompletion(fn func(Event)) Option {
	return func(e *Engine) {
		e.onDone = fn
	}
}

// Engine schedules repository operations below a single root directory.
type Engine struct {
	cfg    config.Config
	root   string
	log    logging.Logger
	creds  credentials.Provider
	onDone func(Event)

	dispatcher *dispatch.Dispatcher

	closeOnce sync.Once
	closeErr  error
}

// New validates cfg, resolves the token source and starts the dispatcher.
// A nil cfg selects config.Default.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := *cfg
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", c.Root, err)
	}
	c.Root = root

	e := &Engine{cfg: c, root: root}
	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = NewLogger(c.Log, os.Stderr)
	}

	if e.creds == nil {
		e.creds, err = NewCredentials(ctx, &c)
		if err != nil {
			return nil, err
		}
	}

	e.dispatcher = dispatch.New(
		dispatch.WithWorkers(c.Workers),
		dispatch.WithLogger(e.log),
	)

	e.log.Info(logging.Pastelize(Name) + " loaded.")
	e.log.Info("Version {yellow}%s{white}, root {cyan}%s", Version, root)
	if c.InsecureSkipTLS {
		e.log.Warn("TLS certificate verification is disabled for HTTPS remotes.")
	}
	return e, nil
}

// NewLogger builds the log sink described by cfg, writing to w.
//
//nolint:ireturn // the logging facade is an interface
func NewLogger(cfg config.LogConfig, w io.Writer) logging.Logger {
	return logging.New(logging.Options{
		Writer: w,
		Level:  logging.ParseLevel(cfg.Level),
		Format: logging.Format(strings.ToLower(cfg.Format)),
		Color:  logging.ColorMode(strings.ToLower(cfg.Color)),
	})
}

// NewCredentials builds the token provider selected by cfg.Token.Source.
//
//nolint:ireturn // providers are selected at runtime
func NewCredentials(ctx context.Context, cfg *config.Config) (credentials.Provider, error) {
	switch strings.ToLower(cfg.Token.Source) {
	case config.TokenSourceNone:
		return credentials.Anonymous(), nil
	case config.TokenSourceAWS:
		p, err := credentials.NewAWSProvider(ctx, credentials.AWSConfig{
			SecretID: cfg.Token.SecretID,
			Region:   cfg.Token.Region,
			Endpoint: cfg.Token.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("creating aws token provider: %w", err)
		}
		return p, nil
	default:
		path := cfg.TokenPath()
		return credentials.NewOSFileProvider(filepath.Dir(path), filepath.Base(path)), nil
	}
}

// Root returns the absolute application root.
func (e *Engine) Root() string {
	return e.root
}

// Close stops accepting work and waits for outstanding tasks. When ctx
// ends first the running tasks are canceled. Later calls return the
// result of the first.
func (e *Engine) Close(ctx context.Context) error {
	e.closeOnce.Do(func() {
		e.log.Info("Shutting down %s...", Name)
		e.closeErr = e.dispatcher.Shutdown(ctx)
	})
	return e.closeErr
}

// Pending returns the number of tasks that have not started yet.
func (e *Engine) Pending() int {
	return e.dispatcher.Pending()
}

// Resolve maps dir to an absolute path inside the root. Relative paths are
// joined to the root; absolute paths must already lie inside it.
func (e *Engine) Resolve(dir string) (string, error) {
	rel := dir
	if filepath.IsAbs(dir) {
		var err error
		rel, err = filepath.Rel(e.root, dir)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrPathOutsideRoot, dir)
		}
	}

	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrPathOutsideRoot, dir)
	}
	return filepath.Join(e.root, rel), nil
}

// options builds the per-call repository options.
func (e *Engine) options(ctx context.Context, path string, log logging.Logger) *git.Options {
	return &git.Options{
		Path:            path,
		Token:           e.token(ctx, log),
		AllowedHosts:    e.cfg.Token.AllowedHosts,
		InsecureSkipTLS: e.cfg.InsecureSkipTLS,
		Logger:          log,
		MergeIdentity: git.Signature{
			Name:  e.cfg.Merge.Name,
			Email: e.cfg.Merge.Email,
		},
		CommitIdentity: git.Signature{
			Name:  e.cfg.Commit.DefaultName,
			Email: e.cfg.Commit.DefaultEmail,
		},
		ConventionalCommits: e.cfg.Commit.Conventional,
		SemverTags:          e.cfg.Checkout.SemverTags,
		DiffSummaryLimit:    e.cfg.Diff.SummaryLimit,
	}
}

// token reads the current token. Failures fall back to anonymous access.
func (e *Engine) token(ctx context.Context, log logging.Logger) string {
	token, err := e.creds.Token(ctx)
	if err != nil {
		log.Warn("Failed to read token from {cyan}%s{white}: {red}%s", e.creds.Name(), err.Error())
		return ""
	}
	return token
}

type taskFunc func(ctx context.Context, path string, log logging.Logger) (git.Outcome, error)

// submit resolves dir and schedules fn on the lane for the resolved path.
func (e *Engine) submit(op Op, dir string, fn taskFunc) (string, error) {
	path, err := e.Resolve(dir)
	if err != nil {
		e.log.Error("Refusing to %s {cyan}%s{white}: {red}%s", op, dir, err.Error())
		return "", err
	}

	id, err := e.dispatcher.Submit(path, string(op), func(ctx context.Context, log logging.Logger) {
		outcome, err := fn(ctx, path, log)
		if e.onDone != nil {
			e.onDone(Event{
				ID:      dispatch.TaskID(ctx),
				Op:      op,
				Path:    path,
				Outcome: outcome,
				Err:     err,
			})
		}
	})
	if err != nil {
		e.log.Error("Cannot %s {cyan}%s{white}: {red}%s", op, path, err.Error())
		return "", err
	}
	return id, nil
}
