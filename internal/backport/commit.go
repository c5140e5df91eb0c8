package backport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scylladb/repobot/internal/githubapi"
)

const (
	commitUndeterminedMessageConstant = "unable to determine the commit that closed the pull request"
	issueEventsErrorTemplateConstant  = "unable to list issue events of #%d: %w"
)

// ErrCommitUndetermined indicates a pull request has neither a merge commit nor a closing commit.
var ErrCommitUndetermined = errors.New(commitUndeterminedMessageConstant)

// IssueEventLister lists the timeline events of a pull request.
type IssueEventLister interface {
	ListIssueEvents(executionContext context.Context, repository githubapi.RepositoryIdentifier, number int) ([]githubapi.IssueEvent, error)
}

// ResolveCommit returns the commit that landed pullRequest: the merge commit when merged,
// otherwise the commit attached to the first closed event.
func ResolveCommit(executionContext context.Context, lister IssueEventLister, repository githubapi.RepositoryIdentifier, pullRequest githubapi.PullRequest) (string, error) {
	if pullRequest.IsMerged() {
		if mergeCommit := strings.TrimSpace(pullRequest.MergeCommitSHA); len(mergeCommit) > 0 {
			return mergeCommit, nil
		}
		return "", ErrCommitUndetermined
	}
	if !pullRequest.IsClosed() {
		return "", ErrCommitUndetermined
	}

	events, listError := lister.ListIssueEvents(executionContext, repository, pullRequest.Number)
	if listError != nil {
		return "", fmt.Errorf(issueEventsErrorTemplateConstant, pullRequest.Number, listError)
	}
	for _, event := range events {
		if event.Event != githubapi.IssueEventClosed {
			continue
		}
		if commit := strings.TrimSpace(event.CommitID); len(commit) > 0 {
			return commit, nil
		}
		return "", ErrCommitUndetermined
	}
	return "", ErrCommitUndetermined
}
