package engine

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/gitsync/git"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/logging"
)

// Clone clones url into dir.
func (e *Engine) Clone(url, dir string) (string, error) {
	return e.submit(OpClone, dir, func(ctx context.Context, path string, log logging.Logger) (git.Outcome, error) {
		log.Info("Cloning repository {cyan}%s{white} to {yellow}%s{white}...", url, path)

		outcome, err := git.Clone(ctx, url, e.options(ctx, path, log))
		if outcome == git.CloneSuccess {
			log.Success("Repository cloned successfully {cyan}%s{white} to {yellow}%s{white}.", url, path)
		} else {
			log.Error("Failed to clone repository {cyan}%s{white} to {yellow}%s{white}: {red}%s", url, path, git.Message(err))
		}
		return outcome, err
	})
}

// Pull fetches origin and integrates the current branch's upstream.
func (e *Engine) Pull(dir string) (string, error) {
	return e.submit(OpPull, dir, func(ctx context.Context, path string, log logging.Logger) (git.Outcome, error) {
		r, ok := e.open(ctx, path, log)
		if !ok {
			return git.HeadLookupFailed, git.ErrInvalidRepository
		}

		outcome, err := r.Pull(ctx)
		reportPull(log, path, outcome, err)
		return outcome, err
	})
}

// Checkout switches dir to rev.
func (e *Engine) Checkout(dir, rev string) (string, error) {
	return e.submit(OpCheckout, dir, func(ctx context.Context, path string, log logging.Logger) (git.Outcome, error) {
		r, ok := e.open(ctx, path, log)
		if !ok {
			return git.TargetLookupFailed, git.ErrInvalidRepository
		}

		outcome, err := r.Checkout(ctx, rev)
		reportCheckout(log, path, rev, outcome, err)
		return outcome, err
	})
}

// Add stages file, or everything when file is "." or "*".
func (e *Engine) Add(dir, file string) (string, error) {
	return e.submit(OpAdd, dir, func(ctx context.Context, path string, log logging.Logger) (git.Outcome, error) {
		r, ok := e.open(ctx, path, log)
		if !ok {
			return git.AddFailed, git.ErrInvalidRepository
		}

		outcome, err := r.Add(ctx, file)
		reportAdd(log, path, file, outcome, err)
		return outcome, err
	})
}

// Commit records the index with message. Blank name or email fall back to
// the configured commit identity.
func (e *Engine) Commit(dir, message, name, email string) (string, error) {
	return e.submit(OpCommit, dir, func(ctx context.Context, path string, log logging.Logger) (git.Outcome, error) {
		r, ok := e.open(ctx, path, log)
		if !ok {
			return git.CommitFailed, git.ErrInvalidRepository
		}

		outcome, err := r.Commit(ctx, message, git.Signature{Name: name, Email: email})
		switch outcome {
		case git.CommitSuccess:
			log.Success("[{cyan}%s {yellow}%s{white}] {gray}%s{white}", r.Branch(ctx), r.ShortHash(ctx), message)
		case git.NothingToCommit:
			log.Info("Nothing to commit in {cyan}%s{white}.", path)
		default:
			log.Error("Failed to commit {cyan}%s{white}: {red}%s", path, git.Message(err))
		}
		return outcome, err
	})
}

// Push publishes the current branch to origin.
func (e *Engine) Push(dir string) (string, error) {
	return e.submit(OpPush, dir, func(ctx context.Context, path string, log logging.Logger) (git.Outcome, error) {
		r, ok := e.open(ctx, path, log)
		if !ok {
			return git.PushFailed, git.ErrInvalidRepository
		}

		outcome, err := r.Push(ctx)
		switch outcome {
		case git.PushSuccess:
			log.Success("Pushed {cyan}%s{white}.", path)
		case git.NothingToPush:
			log.Info("Nothing to push in {cyan}%s{white}.", path)
		case git.OriginLookupFailed:
			log.Error("Failed to lookup origin {cyan}%s{white}: {red}%s", path, git.Message(err))
		default:
			log.Error("Failed to push {cyan}%s{white}: {red}%s", path, git.Message(err))
		}
		return outcome, err
	})
}

// GetBranch returns the branch HEAD points at in dir. ok is false when dir
// is not a repository or HEAD is detached.
func (e *Engine) GetBranch(ctx context.Context, dir string) (string, bool) {
	r, ok := e.openSync(ctx, dir)
	if !ok {
		return "", false
	}
	name := r.Branch(ctx)
	return name, name != ""
}

// GetShortHash returns the abbreviated commit id HEAD resolves to in dir.
func (e *Engine) GetShortHash(ctx context.Context, dir string) (string, bool) {
	r, ok := e.openSync(ctx, dir)
	if !ok {
		return "", false
	}
	hash := r.ShortHash(ctx)
	return hash, hash != ""
}

func (e *Engine) open(ctx context.Context, path string, log logging.Logger) (*git.Repo, bool) {
	r, err := git.Open(ctx, e.options(ctx, path, log))
	if err != nil {
		log.Error("Not a valid Git repository {cyan}%s{white}.", path)
		return r, false
	}
	return r, true
}

// openSync opens dir for read-only introspection. It skips the token
// lookup since nothing touches a remote.
func (e *Engine) openSync(ctx context.Context, dir string) (*git.Repo, bool) {
	path, err := e.Resolve(dir)
	if err != nil {
		e.log.Error("Refusing to inspect {cyan}%s{white}: {red}%s", dir, err.Error())
		return nil, false
	}

	r, err := git.Open(ctx, &git.Options{Path: path, Logger: e.log})
	if err != nil {
		return nil, false
	}
	return r, true
}
