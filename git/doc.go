// Package git runs the repository operations behind gitsync on top of go-git.
//
// Every operation opens a fresh handle, does one thing and reports exactly
// one Outcome together with the underlying error for failure outcomes.
// Handles are never cached; callers serialize operations on the same path.
//
// # Basic Usage
//
// Open an existing working copy and pull:
//
//	repo, err := git.Open(ctx, &git.Options{
//	    Path:   "/srv/data/addons/foo",
//	    Token:  token,
//	    Logger: log,
//	})
//	if err != nil {
//	    // repo is invalid; every operation returns its failure outcome
//	}
//
//	outcome, err := repo.Pull(ctx)
//	switch outcome {
//	case git.FastForwardSuccess, git.MergeSuccess:
//	case git.MergeConflictsFound:
//	    // nothing was written; resolve manually
//	}
//
// # Staging and Committing
//
//	outcome, err = repo.Add(ctx, ".")       // AddSuccess, then NothingToAdd
//	outcome, err = repo.Commit(ctx, "fix: typo", git.Signature{})
//	fmt.Println(repo.Branch(ctx), repo.ShortHash(ctx))
//	outcome, err = repo.Push(ctx)
//
// # Cloning
//
// Clone stages into a ".TEMP_CLONE_<uuid>" sibling of the destination and
// moves or copies the result into place:
//
//	outcome, err := git.Clone(ctx, "https://example.com/org/repo.git", &git.Options{
//	    Path: "/srv/data/addons/repo",
//	})
//
// # Safety
//
// Checkout, fast-forward and merge only touch paths that differ between the
// current and target trees. They fail with ErrUnstagedChanges before writing
// anything when one of those paths has local modifications or would
// overwrite an untracked file. Merges are resolved per path; a path changed
// differently on both sides is a conflict and file contents are never
// merged.
//
// TLS certificates are verified unless Options.InsecureSkipTLS is set.
package git
