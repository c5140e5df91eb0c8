package backport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scylladb/repobot/internal/conflicts"
	"github.com/scylladb/repobot/internal/githubapi"
	"github.com/scylladb/repobot/internal/gitrepo"
	"github.com/scylladb/repobot/internal/logfields"
	"github.com/scylladb/repobot/internal/workspace"
)

const (
	repositoryFieldNameConstant          = "repository"
	baseBranchFieldNameConstant          = "base_branch"
	promotedLabelFieldNameConstant       = "promoted_label"
	versionBranchPrefixFieldNameConstant = "version_branch_prefix"
	requiredValueMessageConstant         = "is required"

	githubClientMissingMessageConstant       = "GitHub client not configured"
	workingCopyFactoryMissingMessageConstant = "working copy factory not configured"
	workspaceMissingMessageConstant          = "workspace provider not configured"

	listPullRequestsErrorTemplateConstant = "unable to list closed pull requests of %s: %w"
	pullRequestLookupErrorTemplate        = "unable to look up open pull requests: %w"
	workspaceErrorTemplateConstant        = "unable to allocate working directory: %w"
	workingCopyErrorTemplateConstant      = "unable to construct working copy: %w"
	remoteURLErrorTemplateConstant        = "unable to build remote URL: %w"
	cloneErrorTemplateConstant            = "unable to clone %s: %w"
	checkoutErrorTemplateConstant         = "unable to check out %s: %w"
	createBranchErrorTemplateConstant     = "unable to create branch %s: %w"
	cherryPickErrorTemplateConstant       = "unable to cherry-pick %s: %w"
	conflictResolutionErrorTemplate       = "unable to resolve cherry-pick conflicts with %s strategy: %w"
	pushErrorTemplateConstant             = "unable to push %s: %w"
	createPullRequestErrorTemplate        = "unable to open backport pull request: %w"

	scanStartedMessageConstant        = "Scanning closed pull requests for backport labels"
	notEligibleMessageConstant        = "Pull request not eligible for backport"
	commitResolvedMessageConstant     = "Resolved commit to backport"
	commitUnresolvedLogMessage        = "Unable to determine commit to backport"
	alreadyOpenMessageConstant        = "Backport pull request already open"
	cherryPickConflictMessageConstant = "Cherry-pick stopped on conflicts, opening the pull request as draft"
	pushSkippedMessageConstant        = "Dry run, skipping push of backport branch"
	pullRequestOpenedMessageConstant  = "Opened backport pull request"
	assignFailedMessageConstant       = "Failed to assign backport pull request to original author"
	assignedMessageConstant           = "Assigned backport pull request to original author"
	backportFailedMessageConstant     = "Backport failed"
	logFieldConflictStrategyConstant  = "conflict_strategy"
	logFieldPullRequestCountConstant  = "pull_request_count"
)

var (
	errGitHubClientMissing       = errors.New(githubClientMissingMessageConstant)
	errWorkingCopyFactoryMissing = errors.New(workingCopyFactoryMissingMessageConstant)
	errWorkspaceMissing          = errors.New(workspaceMissingMessageConstant)
)

// InvalidInputError describes backport option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// GitHubOperations is the GitHub surface used by the backport workflow.
type GitHubOperations interface {
	IssueEventLister
	ListPullRequests(executionContext context.Context, repository githubapi.RepositoryIdentifier, options githubapi.PullRequestListOptions) ([]githubapi.PullRequest, error)
	FindOpenPullRequest(executionContext context.Context, repository githubapi.RepositoryIdentifier, baseBranch string, headBranch string) (githubapi.PullRequest, bool, error)
	CreatePullRequest(executionContext context.Context, repository githubapi.RepositoryIdentifier, options githubapi.NewPullRequestOptions) (githubapi.PullRequest, error)
	AddAssignees(executionContext context.Context, repository githubapi.RepositoryIdentifier, number int, assignees []string) error
}

// WorkingCopy is the git surface used by the backport workflow.
type WorkingCopy interface {
	Directory() string
	Clone(executionContext context.Context, remoteURL string, branch string) error
	Checkout(executionContext context.Context, branch string) error
	CreateBranch(executionContext context.Context, branch string, startPoint string) error
	CherryPick(executionContext context.Context, commit string) error
	StageAll(executionContext context.Context) error
	CommitPrepared(executionContext context.Context) error
	ForcePush(executionContext context.Context, remoteName string, branch string) error
}

// WorkingCopyFactory binds a WorkingCopy to a directory.
type WorkingCopyFactory func(directory string) (WorkingCopy, error)

// WorkspaceProvider allocates temporary directories.
type WorkspaceProvider interface {
	Create(prefix string) (workspace.Directory, error)
}

// ServiceDependencies describes required collaborators for the backport workflow.
type ServiceDependencies struct {
	Logger             *zap.Logger
	GitHubClient       GitHubOperations
	WorkingCopyFactory WorkingCopyFactory
	Workspace          WorkspaceProvider
	ConflictStrategy   conflicts.ResolutionStrategy
}

// RunOptions configures a backport run.
type RunOptions struct {
	Repository          githubapi.RepositoryIdentifier
	BaseBranch          string
	PromotedLabel       string
	VersionBranchPrefix string
	// Token authenticates the clone and push remote.
	Token  string
	DryRun bool
}

// RunExecutor runs the backport workflow.
type RunExecutor interface {
	Execute(executionContext context.Context, options RunOptions) (RunSummary, error)
}

// Service orchestrates the backport workflow.
type Service struct {
	logger             *zap.Logger
	gitHubClient       GitHubOperations
	workingCopyFactory WorkingCopyFactory
	workspace          WorkspaceProvider
	conflictStrategy   conflicts.ResolutionStrategy
}

// backportTarget is one eligible pull request and version pair.
type backportTarget struct {
	pullRequest   githubapi.PullRequest
	commit        string
	version       string
	versionBranch string
	branch        string
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.GitHubClient == nil {
		return nil, errGitHubClientMissing
	}
	if dependencies.WorkingCopyFactory == nil {
		return nil, errWorkingCopyFactoryMissing
	}
	if dependencies.Workspace == nil {
		return nil, errWorkspaceMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	conflictStrategy := dependencies.ConflictStrategy
	if conflictStrategy == nil {
		conflictStrategy = conflicts.NewStageAllStrategy(logger)
	}

	return &Service{
		logger:             logger,
		gitHubClient:       dependencies.GitHubClient,
		workingCopyFactory: dependencies.WorkingCopyFactory,
		workspace:          dependencies.Workspace,
		conflictStrategy:   conflictStrategy,
	}, nil
}

// Execute scans closed pull requests and backports every eligible one.
// Per-item failures are recorded in the summary; only listing failures, invalid options
// and cancellation end the run with an error.
func (service *Service) Execute(executionContext context.Context, options RunOptions) (RunSummary, error) {
	if validationError := validateOptions(options); validationError != nil {
		return RunSummary{}, validationError
	}

	logger := service.logger.With(
		logfields.Repository(options.Repository.String()),
		logfields.BaseBranch(options.BaseBranch),
		logfields.DryRun(options.DryRun),
	)

	pullRequests, listError := service.gitHubClient.ListPullRequests(executionContext, options.Repository, githubapi.PullRequestListOptions{
		State: githubapi.PullRequestStateClosed,
		Base:  options.BaseBranch,
	})
	if listError != nil {
		return RunSummary{}, fmt.Errorf(listPullRequestsErrorTemplateConstant, options.Repository.String(), listError)
	}
	logger.Info(scanStartedMessageConstant, zap.Int(logFieldPullRequestCountConstant, len(pullRequests)))

	var summary RunSummary
	for _, pullRequest := range pullRequests {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		service.processPullRequest(executionContext, logger, options, pullRequest, &summary)
	}
	return summary, nil
}

func (service *Service) processPullRequest(executionContext context.Context, logger *zap.Logger, options RunOptions, pullRequest githubapi.PullRequest, summary *RunSummary) {
	pullRequestLogger := logger.With(logfields.PullRequest(pullRequest.Number))

	versions := EligibleVersions(pullRequest.Labels, options.PromotedLabel)
	if len(versions) == 0 {
		pullRequestLogger.Debug(notEligibleMessageConstant)
		return
	}

	commit, commitError := ResolveCommit(executionContext, service.gitHubClient, options.Repository, pullRequest)
	if commitError != nil {
		pullRequestLogger.Error(commitUnresolvedLogMessage, zap.Error(commitError))
		for _, version := range versions {
			summary.record(ItemResult{
				SourcePullRequest: pullRequest.Number,
				Version:           version,
				Branch:            BackportBranchName(pullRequest.Number, version),
				Outcome:           OutcomeSkipped,
				Reason:            commitError.Error(),
			})
		}
		return
	}
	pullRequestLogger.Info(commitResolvedMessageConstant, logfields.Commit(commit))

	for _, version := range versions {
		target := backportTarget{
			pullRequest:   pullRequest,
			commit:        commit,
			version:       version,
			versionBranch: VersionBranchName(options.VersionBranchPrefix, version),
			branch:        BackportBranchName(pullRequest.Number, version),
		}
		targetLogger := pullRequestLogger.With(logfields.Version(version), logfields.Branch(target.branch))

		item, backportError := service.backport(executionContext, targetLogger, options, target)
		if backportError != nil {
			targetLogger.Error(backportFailedMessageConstant, zap.Error(backportError))
			item = ItemResult{Outcome: OutcomeSkipped, Reason: backportError.Error()}
		}
		item.SourcePullRequest = pullRequest.Number
		item.Version = version
		item.Branch = target.branch
		item.Commit = commit
		summary.record(item)
	}
}

// backport ports one commit onto one version branch and opens the pull request.
func (service *Service) backport(executionContext context.Context, logger *zap.Logger, options RunOptions, target backportTarget) (ItemResult, error) {
	existingPullRequest, found, lookupError := service.gitHubClient.FindOpenPullRequest(executionContext, options.Repository, target.versionBranch, target.branch)
	if lookupError != nil {
		return ItemResult{}, fmt.Errorf(pullRequestLookupErrorTemplate, lookupError)
	}
	if found {
		logger.Info(alreadyOpenMessageConstant, logfields.PullRequest(existingPullRequest.Number), logfields.PullRequestURL(existingPullRequest.HTMLURL))
		return ItemResult{Outcome: OutcomeAlreadyOpen, PullRequest: existingPullRequest}, nil
	}

	directory, workspaceError := service.workspace.Create(target.branch)
	if workspaceError != nil {
		return ItemResult{}, fmt.Errorf(workspaceErrorTemplateConstant, workspaceError)
	}
	defer directory.Release()

	workingCopy, workingCopyError := service.workingCopyFactory(directory.Path)
	if workingCopyError != nil {
		return ItemResult{}, fmt.Errorf(workingCopyErrorTemplateConstant, workingCopyError)
	}

	draft, prepareError := service.prepareBranch(executionContext, logger, workingCopy, options, target)
	if prepareError != nil {
		return ItemResult{}, prepareError
	}

	if options.DryRun {
		logger.Info(pushSkippedMessageConstant)
	} else if pushError := workingCopy.ForcePush(executionContext, gitrepo.OriginRemoteNameConstant, target.branch); pushError != nil {
		return ItemResult{}, fmt.Errorf(pushErrorTemplateConstant, target.branch, pushError)
	}

	pullRequest, createError := service.gitHubClient.CreatePullRequest(executionContext, options.Repository, githubapi.NewPullRequestOptions{
		Title: BuildPullRequestTitle(target.version, target.pullRequest.Title),
		Body:  BuildPullRequestBody(target.pullRequest, target.commit),
		Head:  target.branch,
		Base:  target.versionBranch,
		Draft: draft,
	})
	if createError != nil {
		return ItemResult{}, fmt.Errorf(createPullRequestErrorTemplate, createError)
	}
	logger.Info(pullRequestOpenedMessageConstant, logfields.PullRequestURL(pullRequest.HTMLURL), logfields.Draft(draft))

	service.assignAuthor(executionContext, logger, options.Repository, pullRequest, target.pullRequest.AuthorLogin)

	outcome := OutcomeOpened
	if draft {
		outcome = OutcomeDraft
	}
	return ItemResult{Outcome: outcome, PullRequest: pullRequest}, nil
}

// prepareBranch clones the repository, creates the backport branch from the version branch
// and cherry-picks the commit. It reports whether conflicts were resolved automatically.
func (service *Service) prepareBranch(executionContext context.Context, logger *zap.Logger, workingCopy WorkingCopy, options RunOptions, target backportTarget) (bool, error) {
	remoteURL, remoteURLError := options.Repository.RemoteURL(options.Token)
	if remoteURLError != nil {
		return false, fmt.Errorf(remoteURLErrorTemplateConstant, remoteURLError)
	}
	if cloneError := workingCopy.Clone(executionContext, remoteURL, options.BaseBranch); cloneError != nil {
		return false, fmt.Errorf(cloneErrorTemplateConstant, options.Repository.String(), cloneError)
	}
	if checkoutError := workingCopy.Checkout(executionContext, target.versionBranch); checkoutError != nil {
		return false, fmt.Errorf(checkoutErrorTemplateConstant, target.versionBranch, checkoutError)
	}
	if branchError := workingCopy.CreateBranch(executionContext, target.branch, target.versionBranch); branchError != nil {
		return false, fmt.Errorf(createBranchErrorTemplateConstant, target.branch, branchError)
	}

	cherryPickError := workingCopy.CherryPick(executionContext, target.commit)
	if cherryPickError == nil {
		return false, nil
	}
	var conflictError gitrepo.ConflictError
	if !errors.As(cherryPickError, &conflictError) {
		return false, fmt.Errorf(cherryPickErrorTemplateConstant, target.commit, cherryPickError)
	}

	logger.Warn(cherryPickConflictMessageConstant, zap.String(logFieldConflictStrategyConstant, service.conflictStrategy.Name()))
	if resolveError := service.conflictStrategy.Resolve(executionContext, workingCopy); resolveError != nil {
		return false, fmt.Errorf(conflictResolutionErrorTemplate, service.conflictStrategy.Name(), resolveError)
	}
	return true, nil
}

func (service *Service) assignAuthor(executionContext context.Context, logger *zap.Logger, repository githubapi.RepositoryIdentifier, pullRequest githubapi.PullRequest, author string) {
	trimmedAuthor := strings.TrimSpace(author)
	if len(trimmedAuthor) == 0 {
		return
	}
	if assignError := service.gitHubClient.AddAssignees(executionContext, repository, pullRequest.Number, []string{trimmedAuthor}); assignError != nil {
		logger.Warn(assignFailedMessageConstant, logfields.Assignee(trimmedAuthor), zap.Error(assignError))
		return
	}
	logger.Info(assignedMessageConstant, logfields.Assignee(trimmedAuthor))
}

func validateOptions(options RunOptions) error {
	requiredValues := []struct {
		fieldName string
		missing   bool
	}{
		{fieldName: repositoryFieldNameConstant, missing: len(strings.TrimSpace(options.Repository.Owner)) == 0 || len(strings.TrimSpace(options.Repository.Name)) == 0},
		{fieldName: baseBranchFieldNameConstant, missing: len(strings.TrimSpace(options.BaseBranch)) == 0},
		{fieldName: promotedLabelFieldNameConstant, missing: len(strings.TrimSpace(options.PromotedLabel)) == 0},
		{fieldName: versionBranchPrefixFieldNameConstant, missing: len(strings.TrimSpace(options.VersionBranchPrefix)) == 0},
	}
	for _, required := range requiredValues {
		if required.missing {
			return InvalidInputError{FieldName: required.fieldName, Message: requiredValueMessageConstant}
		}
	}
	return nil
}
