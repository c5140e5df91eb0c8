package githubapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/scylladb/repobot/internal/logfields"
)

const (
	dryRunLoggerNameConstant           = "dry_github_client"
	simulatedCreateMessageConstant     = "simulated creating of github pull request, no pull request created on github"
	simulatedAssignmentMessageConstant = "simulated adding of assignees, no assignee added on github"
)

// DryRunClient is a Client that does not make any changes on GitHub.
// Creating pull requests and adding assignees are simulated and always succeed;
// all other operations are forwarded to the wrapped Client.
type DryRunClient struct {
	client Client
	logger *zap.Logger
}

// NewDryRunClient wraps client.
func NewDryRunClient(client Client, logger *zap.Logger) (*DryRunClient, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunClient{client: client, logger: logger.Named(dryRunLoggerNameConstant)}, nil
}

// ListPullRequests forwards to the wrapped client.
func (dryRunClient *DryRunClient) ListPullRequests(executionContext context.Context, repository RepositoryIdentifier, options PullRequestListOptions) ([]PullRequest, error) {
	return dryRunClient.client.ListPullRequests(executionContext, repository, options)
}

// FindOpenPullRequest forwards to the wrapped client.
func (dryRunClient *DryRunClient) FindOpenPullRequest(executionContext context.Context, repository RepositoryIdentifier, baseBranch string, headBranch string) (PullRequest, bool, error) {
	return dryRunClient.client.FindOpenPullRequest(executionContext, repository, baseBranch, headBranch)
}

// ListIssueEvents forwards to the wrapped client.
func (dryRunClient *DryRunClient) ListIssueEvents(executionContext context.Context, repository RepositoryIdentifier, number int) ([]IssueEvent, error) {
	return dryRunClient.client.ListIssueEvents(executionContext, repository, number)
}

// CreatePullRequest validates options and returns a pull request without a number or URL.
func (dryRunClient *DryRunClient) CreatePullRequest(_ context.Context, repository RepositoryIdentifier, options NewPullRequestOptions) (PullRequest, error) {
	if validationError := validateNewPullRequest(options); validationError != nil {
		return PullRequest{}, validationError
	}
	dryRunClient.logger.Info(simulatedCreateMessageConstant,
		logfields.Repository(repository.String()),
		logfields.Branch(options.Head),
		logfields.BaseBranch(options.Base),
		logfields.Draft(options.Draft),
		zap.String("title", options.Title),
	)
	return PullRequest{
		Title:      options.Title,
		Body:       options.Body,
		State:      string(PullRequestStateOpen),
		HeadBranch: options.Head,
		BaseBranch: options.Base,
		Draft:      options.Draft,
	}, nil
}

// AddAssignees only logs the assignment.
func (dryRunClient *DryRunClient) AddAssignees(_ context.Context, repository RepositoryIdentifier, number int, assignees []string) error {
	dryRunClient.logger.Info(simulatedAssignmentMessageConstant,
		logfields.Repository(repository.String()),
		logfields.PullRequest(number),
		zap.Strings("assignees", assignees),
	)
	return nil
}
