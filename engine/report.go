package engine

import (
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/git"
	"github.com/input-output-hk/catalyst-forge-libs/gitsync/logging"
)

// pullFailures maps Pull failure outcomes to their message prefix.
var pullFailures = map[git.Outcome]string{
	git.OriginLookupFailed: "Failed to lookup origin",
	git.RemoteFetchFailed:  "Failed to fetch remote",
	git.HeadFetchFailed:    "Failed to fetch head",
	git.HeadReadFailed:     "Failed to read head",
	git.HeadLookupFailed:   "Failed to lookup head",
	git.FastForwardFailed:  "Failed to fast-forward",
	git.TreeLookupFailed:   "Failed to lookup tree",
	git.MergeFailed:        "Failed to merge",
}

func reportPull(log logging.Logger, path string, outcome git.Outcome, err error) {
	switch outcome {
	case git.UpToDate:
		log.Info("Repository {cyan}%s{white} up to date.", path)
	case git.FastForwardSuccess:
		log.Success("Repository {cyan}%s{white} fast-forwarded.", path)
	case git.MergeSuccess:
		log.Success("Merged remote changes into {cyan}%s{white}.", path)
	case git.MergeConflictsFound:
		log.Error("Merge conflicts found in {cyan}%s{white}. Please resolve conflicts before pulling.", path)
	default:
		prefix, ok := pullFailures[outcome]
		if !ok {
			prefix = "Failed to pull"
		}
		log.Error("%s {cyan}%s{white}: {red}%s", prefix, path, git.Message(err))
	}
}

func reportCheckout(log logging.Logger, path, rev string, outcome git.Outcome, err error) {
	switch outcome {
	case git.CheckoutSuccess:
		log.Success("Checked out {cyan}%s{white} in {yellow}%s{white}.", rev, path)
	case git.TargetLookupFailed:
		log.Error("Failed to lookup target {cyan}%s{white}: {red}%s", rev, git.Message(err))
	case git.TreeIndexFailed:
		log.Error("Failed to index tree {cyan}%s{white}: {red}%s", rev, git.Message(err))
	default:
		log.Error("Failed to checkout {cyan}%s{white}: {red}%s", rev, git.Message(err))
	}
}

func reportAdd(log logging.Logger, path, file string, outcome git.Outcome, err error) {
	switch outcome {
	case git.AddSuccess:
		log.Success("Added {yellow}%s{white} to {cyan}%s{white}.", file, path)
	case git.NothingToAdd:
		log.Info("No changes to add in {cyan}%s{white}.", path)
	case git.RepositoryIndexFailed:
		log.Error("Failed to index repository {cyan}%s{white}: {red}%s", path, git.Message(err))
	default:
		log.Error("Failed to add {cyan}%s{white} to {yellow}%s{white}: {red}%s", file, path, git.Message(err))
	}
}
