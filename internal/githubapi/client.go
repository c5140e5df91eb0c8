package githubapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultHTTPClientTimeout bounds a single API request.
	DefaultHTTPClientTimeout = time.Minute
	// DefaultPageSize is the page size requested from list endpoints.
	DefaultPageSize = 100

	baseURLFieldNameConstant    = "api_url"
	pullNumberFieldNameConstant = "pull_request"
	headFieldNameConstant       = "head"
	baseFieldNameConstant       = "base"
	titleFieldNameConstant      = "title"
	urlPathSeparatorConstant    = "/"
	positiveNumberMessage       = "must be positive"
)

// Client is the set of GitHub operations used by the sync and backport workflows.
type Client interface {
	ListPullRequests(executionContext context.Context, repository RepositoryIdentifier, options PullRequestListOptions) ([]PullRequest, error)
	FindOpenPullRequest(executionContext context.Context, repository RepositoryIdentifier, baseBranch string, headBranch string) (PullRequest, bool, error)
	ListIssueEvents(executionContext context.Context, repository RepositoryIdentifier, number int) ([]IssueEvent, error)
	CreatePullRequest(executionContext context.Context, repository RepositoryIdentifier, options NewPullRequestOptions) (PullRequest, error)
	AddAssignees(executionContext context.Context, repository RepositoryIdentifier, number int, assignees []string) error
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Token string
	// BaseURL overrides https://api.github.com/, e.g. for GitHub Enterprise.
	BaseURL string
	// HTTPClient replaces the oauth2 client. The token is not applied to it.
	HTTPClient *http.Client
	PageSize   int
}

// RESTClient implements Client on top of go-github.
type RESTClient struct {
	restClient *github.Client
	pageSize   int
}

// NewClient returns a REST client authenticated with options.Token.
func NewClient(options ClientOptions) (*RESTClient, error) {
	httpClient := options.HTTPClient
	if httpClient == nil {
		trimmedToken := strings.TrimSpace(options.Token)
		if len(trimmedToken) == 0 {
			return nil, ErrTokenNotConfigured
		}
		httpClient = newHTTPClient(trimmedToken)
	}

	restClient := github.NewClient(httpClient)
	if trimmedBaseURL := strings.TrimSpace(options.BaseURL); len(trimmedBaseURL) > 0 {
		if !strings.HasSuffix(trimmedBaseURL, urlPathSeparatorConstant) {
			trimmedBaseURL += urlPathSeparatorConstant
		}
		parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
		if parseError != nil {
			return nil, InvalidInputError{Field: baseURLFieldNameConstant, Value: options.BaseURL, Message: parseError.Error()}
		}
		restClient.BaseURL = parsedBaseURL
	}

	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &RESTClient{restClient: restClient, pageSize: pageSize}, nil
}

func newHTTPClient(apiToken string) *http.Client {
	tokenSource := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	httpClient.Timeout = DefaultHTTPClientTimeout

	return httpClient
}

// ListPullRequests returns every pull request matching options, following pagination to the last page.
func (client *RESTClient) ListPullRequests(executionContext context.Context, repository RepositoryIdentifier, options PullRequestListOptions) ([]PullRequest, error) {
	listOptions := &github.PullRequestListOptions{
		State:       string(options.State),
		Base:        options.Base,
		Head:        options.Head,
		ListOptions: github.ListOptions{PerPage: client.pageSize, Page: 1},
	}

	var pullRequests []PullRequest
	for {
		page, response, listError := client.restClient.PullRequests.List(executionContext, repository.Owner, repository.Name, listOptions)
		if listError != nil {
			return nil, newOperationError(OperationListPullRequests, repository, listError)
		}
		for _, pullRequest := range page {
			pullRequests = append(pullRequests, convertPullRequest(pullRequest))
		}
		if response == nil || response.NextPage == 0 || len(page) == 0 {
			return pullRequests, nil
		}
		listOptions.Page = response.NextPage
	}
}

// FindOpenPullRequest returns the first open pull request from headBranch into baseBranch.
func (client *RESTClient) FindOpenPullRequest(executionContext context.Context, repository RepositoryIdentifier, baseBranch string, headBranch string) (PullRequest, bool, error) {
	if len(strings.TrimSpace(headBranch)) == 0 {
		return PullRequest{}, false, InvalidInputError{Field: headFieldNameConstant, Value: headBranch, Message: requiredValueMessageConstant}
	}
	pullRequests, listError := client.ListPullRequests(executionContext, repository, PullRequestListOptions{
		State: PullRequestStateOpen,
		Base:  baseBranch,
		Head:  repository.HeadReference(headBranch),
	})
	if listError != nil {
		return PullRequest{}, false, listError
	}
	if len(pullRequests) == 0 {
		return PullRequest{}, false, nil
	}
	return pullRequests[0], true, nil
}

// ListIssueEvents returns the full issue event timeline of a pull request.
func (client *RESTClient) ListIssueEvents(executionContext context.Context, repository RepositoryIdentifier, number int) ([]IssueEvent, error) {
	if number <= 0 {
		return nil, InvalidInputError{Field: pullNumberFieldNameConstant, Value: "", Message: positiveNumberMessage}
	}
	listOptions := &github.ListOptions{PerPage: client.pageSize, Page: 1}

	var events []IssueEvent
	for {
		page, response, listError := client.restClient.Issues.ListIssueEvents(executionContext, repository.Owner, repository.Name, number, listOptions)
		if listError != nil {
			return nil, newOperationError(OperationListIssueEvents, repository, listError)
		}
		for _, event := range page {
			events = append(events, IssueEvent{
				Event:     event.GetEvent(),
				CommitID:  event.GetCommitID(),
				CreatedAt: event.GetCreatedAt().Time,
			})
		}
		if response == nil || response.NextPage == 0 || len(page) == 0 {
			return events, nil
		}
		listOptions.Page = response.NextPage
	}
}

// CreatePullRequest opens a pull request. options.Head is a branch of repository.
func (client *RESTClient) CreatePullRequest(executionContext context.Context, repository RepositoryIdentifier, options NewPullRequestOptions) (PullRequest, error) {
	if validationError := validateNewPullRequest(options); validationError != nil {
		return PullRequest{}, validationError
	}

	newPullRequest := &github.NewPullRequest{
		Title: github.String(options.Title),
		Head:  github.String(options.Head),
		Base:  github.String(options.Base),
		Draft: github.Bool(options.Draft),
	}
	if len(options.Body) > 0 {
		newPullRequest.Body = github.String(options.Body)
	}

	createdPullRequest, _, createError := client.restClient.PullRequests.Create(executionContext, repository.Owner, repository.Name, newPullRequest)
	if createError != nil {
		return PullRequest{}, newOperationError(OperationCreatePullRequest, repository, createError)
	}
	return convertPullRequest(createdPullRequest), nil
}

// AddAssignees assigns users to an issue or pull request.
func (client *RESTClient) AddAssignees(executionContext context.Context, repository RepositoryIdentifier, number int, assignees []string) error {
	if number <= 0 {
		return InvalidInputError{Field: pullNumberFieldNameConstant, Value: "", Message: positiveNumberMessage}
	}
	if _, _, assignError := client.restClient.Issues.AddAssignees(executionContext, repository.Owner, repository.Name, number, assignees); assignError != nil {
		return newOperationError(OperationAddAssignees, repository, assignError)
	}
	return nil
}

func validateNewPullRequest(options NewPullRequestOptions) error {
	if len(strings.TrimSpace(options.Title)) == 0 {
		return InvalidInputError{Field: titleFieldNameConstant, Value: options.Title, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.Head)) == 0 {
		return InvalidInputError{Field: headFieldNameConstant, Value: options.Head, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.Base)) == 0 {
		return InvalidInputError{Field: baseFieldNameConstant, Value: options.Base, Message: requiredValueMessageConstant}
	}
	return nil
}

func convertPullRequest(pullRequest *github.PullRequest) PullRequest {
	labels := make([]string, 0, len(pullRequest.Labels))
	for _, label := range pullRequest.Labels {
		labels = append(labels, label.GetName())
	}
	return PullRequest{
		Number:         pullRequest.GetNumber(),
		Title:          pullRequest.GetTitle(),
		Body:           pullRequest.GetBody(),
		HTMLURL:        pullRequest.GetHTMLURL(),
		State:          pullRequest.GetState(),
		AuthorLogin:    pullRequest.GetUser().GetLogin(),
		HeadBranch:     pullRequest.GetHead().GetRef(),
		BaseBranch:     pullRequest.GetBase().GetRef(),
		Labels:         labels,
		Draft:          pullRequest.GetDraft(),
		Merged:         pullRequest.GetMerged(),
		MergeCommitSHA: pullRequest.GetMergeCommitSHA(),
		MergedAt:       pullRequest.GetMergedAt().Time,
		ClosedAt:       pullRequest.GetClosedAt().Time,
	}
}
