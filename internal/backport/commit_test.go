package backport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scylladb/repobot/internal/githubapi"
)

type stubIssueEventLister struct {
	events    []githubapi.IssueEvent
	listError error
	calls     int
}

func (lister *stubIssueEventLister) ListIssueEvents(context.Context, githubapi.RepositoryIdentifier, int) ([]githubapi.IssueEvent, error) {
	lister.calls++
	return lister.events, lister.listError
}

func TestResolveCommit(testInstance *testing.T) {
	closedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name           string
		pullRequest    githubapi.PullRequest
		lister         *stubIssueEventLister
		expectedCommit string
		expectedError  error
		expectedCalls  int
	}{
		{
			name:           "merged_uses_merge_commit",
			pullRequest:    githubapi.PullRequest{Number: 42, MergedAt: closedAt, ClosedAt: closedAt, MergeCommitSHA: "deadbee"},
			lister:         &stubIssueEventLister{},
			expectedCommit: "deadbee",
		},
		{
			name:        "closed_uses_first_closed_event",
			pullRequest: githubapi.PullRequest{Number: 43, ClosedAt: closedAt},
			lister: &stubIssueEventLister{events: []githubapi.IssueEvent{
				{Event: "labeled"},
				{Event: githubapi.IssueEventClosed, CommitID: "c0ffee1"},
				{Event: githubapi.IssueEventClosed, CommitID: "c0ffee2"},
			}},
			expectedCommit: "c0ffee1",
			expectedCalls:  1,
		},
		{
			name:          "closed_event_without_commit",
			pullRequest:   githubapi.PullRequest{Number: 43, ClosedAt: closedAt},
			lister:        &stubIssueEventLister{events: []githubapi.IssueEvent{{Event: githubapi.IssueEventClosed}}},
			expectedError: ErrCommitUndetermined,
			expectedCalls: 1,
		},
		{
			name:          "closed_without_events",
			pullRequest:   githubapi.PullRequest{Number: 43, ClosedAt: closedAt},
			lister:        &stubIssueEventLister{},
			expectedError: ErrCommitUndetermined,
			expectedCalls: 1,
		},
		{
			name:          "neither_merged_nor_closed",
			pullRequest:   githubapi.PullRequest{Number: 44},
			lister:        &stubIssueEventLister{},
			expectedError: ErrCommitUndetermined,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commit, resolveError := ResolveCommit(context.Background(), testCase.lister, githubapi.RepositoryIdentifier{Owner: "o", Name: "r"}, testCase.pullRequest)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, resolveError, testCase.expectedError)
			} else {
				require.NoError(testInstance, resolveError)
			}
			require.Equal(testInstance, testCase.expectedCommit, commit)
			require.Equal(testInstance, testCase.expectedCalls, testCase.lister.calls)
		})
	}
}

func TestResolveCommitWrapsEventListingFailure(testInstance *testing.T) {
	lister := &stubIssueEventLister{listError: errors.New("rate limited")}
	_, resolveError := ResolveCommit(context.Background(), lister, githubapi.RepositoryIdentifier{Owner: "o", Name: "r"}, githubapi.PullRequest{Number: 7, ClosedAt: time.Now()})
	require.ErrorContains(testInstance, resolveError, "unable to list issue events of #7: rate limited")
}
