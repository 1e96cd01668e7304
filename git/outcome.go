package git

// Outcome is the single result code every repository operation produces.
// Codes are string-based so they read naturally in logs and JSON.
type Outcome string

const (
	// Success codes.

	// FastForwardSuccess indicates Pull moved the branch forward to the remote tip.
	FastForwardSuccess Outcome = "FAST_FORWARD_SUCCESS"

	// MergeSuccess indicates Pull created a merge commit.
	MergeSuccess Outcome = "MERGE_SUCCESS"

	// CheckoutSuccess indicates the working copy now matches the requested revision.
	CheckoutSuccess Outcome = "CHECKOUT_SUCCESS"

	// AddSuccess indicates the index was updated.
	AddSuccess Outcome = "ADD_SUCCESS"

	// CommitSuccess indicates a new commit was recorded.
	CommitSuccess Outcome = "COMMIT_SUCCESS"

	// PushSuccess indicates the remote branch was updated.
	PushSuccess Outcome = "PUSH_SUCCESS"

	// CloneSuccess indicates the repository was cloned into place.
	CloneSuccess Outcome = "CLONE_SUCCESS"

	// No-op codes.

	// UpToDate indicates the local branch already contains the remote tip.
	UpToDate Outcome = "UP_TO_DATE"

	// NothingToAdd indicates staging would not change the index tree.
	NothingToAdd Outcome = "NOTHING_TO_ADD"

	// NothingToCommit indicates the index tree equals HEAD's tree.
	NothingToCommit Outcome = "NOTHING_TO_COMMIT"

	// NothingToPush indicates the local branch equals its remote-tracking branch.
	NothingToPush Outcome = "NOTHING_TO_PUSH"

	// Conflict codes.

	// MergeConflictsFound indicates both sides changed the same paths; nothing was written.
	MergeConflictsFound Outcome = "MERGE_CONFLICTS_FOUND"

	// Failure codes.

	// OriginLookupFailed indicates the origin remote is missing or unreadable.
	OriginLookupFailed Outcome = "ORIGIN_LOOKUP_FAILED"

	// RemoteFetchFailed indicates the fetch from origin failed.
	RemoteFetchFailed Outcome = "REMOTE_FETCH_FAILED"

	// HeadFetchFailed indicates the fetched head could not be read.
	HeadFetchFailed Outcome = "HEAD_FETCH_FAILED"

	// HeadReadFailed indicates the remote-tracking reference could not be read.
	HeadReadFailed Outcome = "HEAD_READ_FAILED"

	// HeadLookupFailed indicates HEAD could not be resolved.
	HeadLookupFailed Outcome = "HEAD_LOOKUP_FAILED"

	// FastForwardFailed indicates the fast-forward could not be applied.
	FastForwardFailed Outcome = "FAST_FORWARD_FAILED"

	// TreeLookupFailed indicates a tree object could not be read.
	TreeLookupFailed Outcome = "TREE_LOOKUP_FAILED"

	// MergeFailed indicates analysis, merge or merge commit creation failed.
	MergeFailed Outcome = "MERGE_FAILED"

	// TargetLookupFailed indicates the checkout revision did not resolve.
	TargetLookupFailed Outcome = "TARGET_LOOKUP_FAILED"

	// TreeIndexFailed indicates the checkout target's commit or tree was unreadable.
	TreeIndexFailed Outcome = "TREE_INDEX_FAILED"

	// CheckoutFailed indicates the working copy could not be updated.
	CheckoutFailed Outcome = "CHECKOUT_FAILED"

	// RepositoryIndexFailed indicates the index could not be opened.
	RepositoryIndexFailed Outcome = "REPOSITORY_INDEX_FAILED"

	// FileNotFound indicates Add targeted a path missing from the working copy.
	FileNotFound Outcome = "FILE_NOT_FOUND"

	// AddFailed indicates staging failed.
	AddFailed Outcome = "ADD_FAILED"

	// CommitFailed indicates the commit could not be created.
	CommitFailed Outcome = "COMMIT_FAILED"

	// PushFailed indicates the push or its post-push verification failed.
	PushFailed Outcome = "PUSH_FAILED"

	// CloneFailed indicates the clone or its move into place failed.
	CloneFailed Outcome = "CLONE_FAILED"
)

// Class groups outcomes by how they should be reported.
type Class int

const (
	ClassFailure Class = iota
	ClassSuccess
	ClassNoop
	ClassConflict
)

// String returns the lower-case class name.
func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassNoop:
		return "noop"
	case ClassConflict:
		return "conflict"
	default:
		return "failure"
	}
}

// Class classifies o. Unknown codes are failures.
func (o Outcome) Class() Class {
	switch o {
	case FastForwardSuccess, MergeSuccess, CheckoutSuccess, AddSuccess,
		CommitSuccess, PushSuccess, CloneSuccess:
		return ClassSuccess
	case UpToDate, NothingToAdd, NothingToCommit, NothingToPush:
		return ClassNoop
	case MergeConflictsFound:
		return ClassConflict
	default:
		return ClassFailure
	}
}

// OK reports whether o is a success or a no-op.
func (o Outcome) OK() bool {
	c := o.Class()
	return c == ClassSuccess || c == ClassNoop
}

// String implements fmt.Stringer.
func (o Outcome) String() string { return string(o) }

// Message returns err's text, or "Unknown error" when err is nil.
func Message(err error) string {
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}
