package backport

import (
	"context"
	"fmt"

	"github.com/scylladb/repobot/internal/githubapi"
)

type recordingWorkingCopy struct {
	directory       string
	cherryPickError error
	calls           []string
	clonedURL       string
}

func (workingCopy *recordingWorkingCopy) record(format string, arguments ...any) {
	workingCopy.calls = append(workingCopy.calls, fmt.Sprintf(format, arguments...))
}

func (workingCopy *recordingWorkingCopy) Directory() string {
	return workingCopy.directory
}

func (workingCopy *recordingWorkingCopy) Clone(_ context.Context, remoteURL string, branch string) error {
	workingCopy.record("clone %s", branch)
	workingCopy.clonedURL = remoteURL
	return nil
}

func (workingCopy *recordingWorkingCopy) Checkout(_ context.Context, branch string) error {
	workingCopy.record("checkout %s", branch)
	return nil
}

func (workingCopy *recordingWorkingCopy) CreateBranch(_ context.Context, branch string, startPoint string) error {
	workingCopy.record("checkout -b %s %s", branch, startPoint)
	return nil
}

func (workingCopy *recordingWorkingCopy) CherryPick(_ context.Context, commit string) error {
	workingCopy.record("cherry-pick %s", commit)
	return workingCopy.cherryPickError
}

func (workingCopy *recordingWorkingCopy) StageAll(context.Context) error {
	workingCopy.record("add -A")
	return nil
}

func (workingCopy *recordingWorkingCopy) CommitPrepared(context.Context) error {
	workingCopy.record("commit --no-edit")
	return nil
}

func (workingCopy *recordingWorkingCopy) ForcePush(_ context.Context, remoteName string, branch string) error {
	workingCopy.record("push --force %s %s", remoteName, branch)
	return nil
}

type recordingGitHubClient struct {
	pullRequests        []githubapi.PullRequest
	listError           error
	issueEvents         map[int][]githubapi.IssueEvent
	openPullRequests    map[string]githubapi.PullRequest
	createErrors        map[string]error
	assignError         error
	listOptions         []githubapi.PullRequestListOptions
	createdPullRequests []githubapi.NewPullRequestOptions
	assignments         map[int][]string
	nextNumber          int
}

func (client *recordingGitHubClient) ListPullRequests(_ context.Context, _ githubapi.RepositoryIdentifier, options githubapi.PullRequestListOptions) ([]githubapi.PullRequest, error) {
	client.listOptions = append(client.listOptions, options)
	return client.pullRequests, client.listError
}

func (client *recordingGitHubClient) ListIssueEvents(_ context.Context, _ githubapi.RepositoryIdentifier, number int) ([]githubapi.IssueEvent, error) {
	return client.issueEvents[number], nil
}

func (client *recordingGitHubClient) FindOpenPullRequest(_ context.Context, _ githubapi.RepositoryIdentifier, _ string, headBranch string) (githubapi.PullRequest, bool, error) {
	pullRequest, found := client.openPullRequests[headBranch]
	return pullRequest, found, nil
}

func (client *recordingGitHubClient) CreatePullRequest(_ context.Context, repository githubapi.RepositoryIdentifier, options githubapi.NewPullRequestOptions) (githubapi.PullRequest, error) {
	client.createdPullRequests = append(client.createdPullRequests, options)
	if createError, exists := client.createErrors[options.Head]; exists {
		return githubapi.PullRequest{}, createError
	}
	client.nextNumber++
	number := 1000 + client.nextNumber
	return githubapi.PullRequest{
		Number:  number,
		HTMLURL: fmt.Sprintf("https://github.com/%s/pull/%d", repository.String(), number),
		Draft:   options.Draft,
	}, nil
}

func (client *recordingGitHubClient) AddAssignees(_ context.Context, _ githubapi.RepositoryIdentifier, number int, assignees []string) error {
	if client.assignments == nil {
		client.assignments = map[int][]string{}
	}
	client.assignments[number] = append(client.assignments[number], assignees...)
	return client.assignError
}
