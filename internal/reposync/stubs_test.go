package reposync

import (
	"context"
	"fmt"

	"github.com/scylladb/repobot/internal/githubapi"
	"github.com/scylladb/repobot/internal/gitrepo"
)

type recordingWorkingCopy struct {
	directory    string
	shortHash    string
	isAncestor   bool
	mergeError   error
	cloneError   error
	commitError  error
	commits      []gitrepo.CommitSummary
	calls        []string
	clonedURL    string
	sourceURL    string
	pushedBranch string
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
	return workingCopy.cloneError
}

func (workingCopy *recordingWorkingCopy) AddRemote(_ context.Context, remoteName string, remoteURL string) error {
	workingCopy.record("remote add %s", remoteName)
	workingCopy.sourceURL = remoteURL
	return nil
}

func (workingCopy *recordingWorkingCopy) Fetch(_ context.Context, remoteName string, branch string) error {
	workingCopy.record("fetch %s %s", remoteName, branch)
	return nil
}

func (workingCopy *recordingWorkingCopy) ResolveShortHash(_ context.Context, revision string, length int) (string, error) {
	workingCopy.record("rev-parse --short=%d %s", length, revision)
	return workingCopy.shortHash, nil
}

func (workingCopy *recordingWorkingCopy) IsAncestor(_ context.Context, ancestor string, descendant string) (bool, error) {
	workingCopy.record("merge-base --is-ancestor %s %s", ancestor, descendant)
	return workingCopy.isAncestor, nil
}

func (workingCopy *recordingWorkingCopy) CreateBranch(_ context.Context, branch string, startPoint string) error {
	workingCopy.record("checkout -b %s %s", branch, startPoint)
	return nil
}

func (workingCopy *recordingWorkingCopy) Merge(_ context.Context, revision string) error {
	workingCopy.record("merge %s", revision)
	return workingCopy.mergeError
}

func (workingCopy *recordingWorkingCopy) StageAll(context.Context) error {
	workingCopy.record("add -A")
	return nil
}

func (workingCopy *recordingWorkingCopy) CommitPrepared(context.Context) error {
	workingCopy.record("commit --no-edit")
	return workingCopy.commitError
}

func (workingCopy *recordingWorkingCopy) ForcePush(_ context.Context, remoteName string, branch string) error {
	workingCopy.record("push --force %s %s", remoteName, branch)
	workingCopy.pushedBranch = branch
	return nil
}

func (workingCopy *recordingWorkingCopy) ListCommits(_ context.Context, base string, head string) ([]gitrepo.CommitSummary, error) {
	workingCopy.record("log %s..%s", base, head)
	return workingCopy.commits, nil
}

type recordingGitHubClient struct {
	existingPullRequest *githubapi.PullRequest
	createError         error
	lookups             []string
	createdPullRequests []githubapi.NewPullRequestOptions
}

func (client *recordingGitHubClient) FindOpenPullRequest(_ context.Context, repository githubapi.RepositoryIdentifier, baseBranch string, headBranch string) (githubapi.PullRequest, bool, error) {
	client.lookups = append(client.lookups, fmt.Sprintf("%s %s<-%s", repository.String(), baseBranch, headBranch))
	if client.existingPullRequest == nil {
		return githubapi.PullRequest{}, false, nil
	}
	return *client.existingPullRequest, true, nil
}

func (client *recordingGitHubClient) CreatePullRequest(_ context.Context, _ githubapi.RepositoryIdentifier, options githubapi.NewPullRequestOptions) (githubapi.PullRequest, error) {
	client.createdPullRequests = append(client.createdPullRequests, options)
	if client.createError != nil {
		return githubapi.PullRequest{}, client.createError
	}
	return githubapi.PullRequest{Number: 101, HTMLURL: "https://github.com/scylladb/scylla-enterprise-pkg/pull/101", Draft: options.Draft}, nil
}
