package reposync

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
	// SourceRemoteNameConstant is the remote under which the source repository is fetched.
	SourceRemoteNameConstant = "source"

	workspacePrefixTemplateConstant = "sync-%s"

	sourceRepositoryFieldNameConstant = "source_repo"
	targetRepositoryFieldNameConstant = "target_repo"
	sourceBranchFieldNameConstant     = "source_branch"
	targetBranchFieldNameConstant     = "target_branch"
	requiredValueMessageConstant      = "is required"

	githubClientMissingMessageConstant       = "GitHub client not configured"
	workingCopyFactoryMissingMessageConstant = "working copy factory not configured"
	workspaceMissingMessageConstant          = "workspace provider not configured"

	workspaceErrorTemplateConstant    = "unable to allocate working directory: %w"
	workingCopyErrorTemplateConstant  = "unable to construct working copy: %w"
	remoteURLErrorTemplateConstant    = "unable to build remote URL for %s: %w"
	cloneErrorTemplateConstant        = "unable to clone %s: %w"
	addRemoteErrorTemplateConstant    = "unable to add source remote: %w"
	fetchErrorTemplateConstant        = "unable to fetch %s from %s: %w"
	resolveHashErrorTemplateConstant  = "unable to resolve tip of %s: %w"
	ancestryErrorTemplateConstant     = "unable to compare %s with %s: %w"
	pullRequestLookupErrorTemplate    = "unable to look up open pull requests: %w"
	createBranchErrorTemplateConstant = "unable to create branch %s: %w"
	mergeErrorTemplateConstant        = "unable to merge %s: %w"
	conflictResolutionErrorTemplate   = "unable to resolve merge conflicts with %s strategy: %w"
	pushErrorTemplateConstant         = "unable to push %s: %w"
	listCommitsErrorTemplateConstant  = "unable to list commits of %s: %w"
	createPullRequestErrorTemplate    = "unable to open sync pull request: %w"
	alreadyInSyncMessageConstant      = "Target branch already contains the source branch"
	pullRequestExistsMessageConstant  = "Sync pull request already open"
	mergeConflictMessageConstant      = "Merge stopped on conflicts, opening the pull request as draft"
	pushSkippedMessageConstant        = "Dry run, skipping push of sync branch"
	pullRequestOpenedMessageConstant  = "Opened sync pull request"
	logFieldConflictStrategyConstant  = "conflict_strategy"
	logFieldCommitCountConstant       = "commit_count"
)

// Outcome describes how a sync run finished.
type Outcome string

// Sync outcomes.
const (
	OutcomeAlreadyInSync     Outcome = "already-in-sync"
	OutcomePullRequestExists Outcome = "pull-request-exists"
	OutcomePullRequestOpened Outcome = "pull-request-opened"
)

var (
	errGitHubClientMissing       = errors.New(githubClientMissingMessageConstant)
	errWorkingCopyFactoryMissing = errors.New(workingCopyFactoryMissingMessageConstant)
	errWorkspaceMissing          = errors.New(workspaceMissingMessageConstant)
)

// InvalidInputError describes sync option validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// GitHubOperations is the GitHub surface used by the sync workflow.
type GitHubOperations interface {
	FindOpenPullRequest(executionContext context.Context, repository githubapi.RepositoryIdentifier, baseBranch string, headBranch string) (githubapi.PullRequest, bool, error)
	CreatePullRequest(executionContext context.Context, repository githubapi.RepositoryIdentifier, options githubapi.NewPullRequestOptions) (githubapi.PullRequest, error)
}

// WorkingCopy is the git surface used by the sync workflow.
type WorkingCopy interface {
	Directory() string
	Clone(executionContext context.Context, remoteURL string, branch string) error
	AddRemote(executionContext context.Context, remoteName string, remoteURL string) error
	Fetch(executionContext context.Context, remoteName string, branch string) error
	ResolveShortHash(executionContext context.Context, revision string, length int) (string, error)
	IsAncestor(executionContext context.Context, ancestor string, descendant string) (bool, error)
	CreateBranch(executionContext context.Context, branch string, startPoint string) error
	Merge(executionContext context.Context, revision string) error
	StageAll(executionContext context.Context) error
	CommitPrepared(executionContext context.Context) error
	ForcePush(executionContext context.Context, remoteName string, branch string) error
	ListCommits(executionContext context.Context, base string, head string) ([]gitrepo.CommitSummary, error)
}

// WorkingCopyFactory binds a WorkingCopy to a directory.
type WorkingCopyFactory func(directory string) (WorkingCopy, error)

// WorkspaceProvider allocates temporary directories.
type WorkspaceProvider interface {
	Create(prefix string) (workspace.Directory, error)
}

// ServiceDependencies describes required collaborators for the sync workflow.
type ServiceDependencies struct {
	Logger             *zap.Logger
	GitHubClient       GitHubOperations
	WorkingCopyFactory WorkingCopyFactory
	Workspace          WorkspaceProvider
	ConflictStrategy   conflicts.ResolutionStrategy
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	SourceRepository githubapi.RepositoryIdentifier
	SourceBranch     string
	TargetRepository githubapi.RepositoryIdentifier
	TargetBranch     string
	// Token authenticates the clone, fetch and push remotes.
	Token  string
	DryRun bool
}

// SyncResult captures the observable outcome of a sync run.
type SyncResult struct {
	Outcome         Outcome
	SourceShortHash string
	SyncBranch      string
	Draft           bool
	Commits         []gitrepo.CommitSummary
	PullRequest     githubapi.PullRequest
}

// SyncExecutor runs the sync workflow.
type SyncExecutor interface {
	Execute(executionContext context.Context, options SyncOptions) (SyncResult, error)
}

// Service orchestrates the sync workflow.
type Service struct {
	logger             *zap.Logger
	gitHubClient       GitHubOperations
	workingCopyFactory WorkingCopyFactory
	workspace          WorkspaceProvider
	conflictStrategy   conflicts.ResolutionStrategy
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

// Execute performs one sync run. It returns without mutations when the target already
// contains the source tip or a sync pull request for that tip is already open.
func (service *Service) Execute(executionContext context.Context, options SyncOptions) (SyncResult, error) {
	if validationError := validateOptions(options); validationError != nil {
		return SyncResult{}, validationError
	}

	logger := service.logger.With(
		logfields.Repository(options.TargetRepository.String()),
		logfields.BaseBranch(options.TargetBranch),
		logfields.SourceRepository(options.SourceRepository.String()),
		logfields.SourceBranch(options.SourceBranch),
		logfields.DryRun(options.DryRun),
	)

	directory, workspaceError := service.workspace.Create(fmt.Sprintf(workspacePrefixTemplateConstant, options.TargetRepository.Name))
	if workspaceError != nil {
		return SyncResult{}, fmt.Errorf(workspaceErrorTemplateConstant, workspaceError)
	}
	defer directory.Release()

	workingCopy, workingCopyError := service.workingCopyFactory(directory.Path)
	if workingCopyError != nil {
		return SyncResult{}, fmt.Errorf(workingCopyErrorTemplateConstant, workingCopyError)
	}

	sourceReference, prepareError := service.prepareWorkingCopy(executionContext, workingCopy, options)
	if prepareError != nil {
		return SyncResult{}, prepareError
	}

	shortHash, hashError := workingCopy.ResolveShortHash(executionContext, sourceReference, gitrepo.DefaultShortHashLengthConstant)
	if hashError != nil {
		return SyncResult{}, fmt.Errorf(resolveHashErrorTemplateConstant, sourceReference, hashError)
	}
	result := SyncResult{SourceShortHash: shortHash, SyncBranch: SyncBranchName(shortHash)}
	logger = logger.With(logfields.Commit(shortHash), logfields.Branch(result.SyncBranch))

	alreadyContained, ancestryError := workingCopy.IsAncestor(executionContext, sourceReference, options.TargetBranch)
	if ancestryError != nil {
		return SyncResult{}, fmt.Errorf(ancestryErrorTemplateConstant, sourceReference, options.TargetBranch, ancestryError)
	}
	if alreadyContained {
		logger.Info(alreadyInSyncMessageConstant)
		result.Outcome = OutcomeAlreadyInSync
		return result, nil
	}

	existingPullRequest, found, lookupError := service.gitHubClient.FindOpenPullRequest(executionContext, options.TargetRepository, options.TargetBranch, result.SyncBranch)
	if lookupError != nil {
		return SyncResult{}, fmt.Errorf(pullRequestLookupErrorTemplate, lookupError)
	}
	if found {
		logger.Info(pullRequestExistsMessageConstant, logfields.PullRequest(existingPullRequest.Number), logfields.PullRequestURL(existingPullRequest.HTMLURL))
		result.Outcome = OutcomePullRequestExists
		result.PullRequest = existingPullRequest
		return result, nil
	}

	if createError := workingCopy.CreateBranch(executionContext, result.SyncBranch, options.TargetBranch); createError != nil {
		return SyncResult{}, fmt.Errorf(createBranchErrorTemplateConstant, result.SyncBranch, createError)
	}

	draft, mergeError := service.mergeSource(executionContext, logger, workingCopy, sourceReference)
	if mergeError != nil {
		return SyncResult{}, mergeError
	}
	result.Draft = draft

	if options.DryRun {
		logger.Info(pushSkippedMessageConstant)
	} else if pushError := workingCopy.ForcePush(executionContext, gitrepo.OriginRemoteNameConstant, result.SyncBranch); pushError != nil {
		return SyncResult{}, fmt.Errorf(pushErrorTemplateConstant, result.SyncBranch, pushError)
	}

	commits, listError := workingCopy.ListCommits(executionContext, options.TargetBranch, result.SyncBranch)
	if listError != nil {
		return SyncResult{}, fmt.Errorf(listCommitsErrorTemplateConstant, result.SyncBranch, listError)
	}
	result.Commits = commits

	pullRequest, createPullRequestError := service.gitHubClient.CreatePullRequest(executionContext, options.TargetRepository, githubapi.NewPullRequestOptions{
		Title: BuildPullRequestTitle(options.SourceRepository, options.TargetRepository),
		Body:  BuildPullRequestBody(options, commits),
		Head:  result.SyncBranch,
		Base:  options.TargetBranch,
		Draft: result.Draft,
	})
	if createPullRequestError != nil {
		return SyncResult{}, fmt.Errorf(createPullRequestErrorTemplate, createPullRequestError)
	}

	logger.Info(
		pullRequestOpenedMessageConstant,
		logfields.PullRequest(pullRequest.Number),
		logfields.PullRequestURL(pullRequest.HTMLURL),
		logfields.Draft(result.Draft),
		zap.Int(logFieldCommitCountConstant, len(commits)),
	)
	result.Outcome = OutcomePullRequestOpened
	result.PullRequest = pullRequest
	return result, nil
}

// prepareWorkingCopy clones the target branch and fetches the source branch, returning the source tip reference.
func (service *Service) prepareWorkingCopy(executionContext context.Context, workingCopy WorkingCopy, options SyncOptions) (string, error) {
	targetURL, targetURLError := options.TargetRepository.RemoteURL(options.Token)
	if targetURLError != nil {
		return "", fmt.Errorf(remoteURLErrorTemplateConstant, options.TargetRepository.String(), targetURLError)
	}
	if cloneError := workingCopy.Clone(executionContext, targetURL, options.TargetBranch); cloneError != nil {
		return "", fmt.Errorf(cloneErrorTemplateConstant, options.TargetRepository.String(), cloneError)
	}

	sourceURL, sourceURLError := options.SourceRepository.RemoteURL(options.Token)
	if sourceURLError != nil {
		return "", fmt.Errorf(remoteURLErrorTemplateConstant, options.SourceRepository.String(), sourceURLError)
	}
	if remoteError := workingCopy.AddRemote(executionContext, SourceRemoteNameConstant, sourceURL); remoteError != nil {
		return "", fmt.Errorf(addRemoteErrorTemplateConstant, remoteError)
	}
	if fetchError := workingCopy.Fetch(executionContext, SourceRemoteNameConstant, options.SourceBranch); fetchError != nil {
		return "", fmt.Errorf(fetchErrorTemplateConstant, options.SourceBranch, options.SourceRepository.String(), fetchError)
	}

	return gitrepo.RemoteBranchReference(SourceRemoteNameConstant, options.SourceBranch), nil
}

// mergeSource merges the source tip into the checked out sync branch and reports whether conflicts were resolved automatically.
func (service *Service) mergeSource(executionContext context.Context, logger *zap.Logger, workingCopy WorkingCopy, sourceReference string) (bool, error) {
	mergeError := workingCopy.Merge(executionContext, sourceReference)
	if mergeError == nil {
		return false, nil
	}

	var conflictError gitrepo.ConflictError
	if !errors.As(mergeError, &conflictError) {
		return false, fmt.Errorf(mergeErrorTemplateConstant, sourceReference, mergeError)
	}

	logger.Warn(mergeConflictMessageConstant, zap.String(logFieldConflictStrategyConstant, service.conflictStrategy.Name()))
	if resolveError := service.conflictStrategy.Resolve(executionContext, workingCopy); resolveError != nil {
		return false, fmt.Errorf(conflictResolutionErrorTemplate, service.conflictStrategy.Name(), resolveError)
	}
	return true, nil
}

func validateOptions(options SyncOptions) error {
	requiredValues := []struct {
		fieldName string
		missing   bool
	}{
		{fieldName: sourceRepositoryFieldNameConstant, missing: repositoryMissing(options.SourceRepository)},
		{fieldName: sourceBranchFieldNameConstant, missing: len(strings.TrimSpace(options.SourceBranch)) == 0},
		{fieldName: targetRepositoryFieldNameConstant, missing: repositoryMissing(options.TargetRepository)},
		{fieldName: targetBranchFieldNameConstant, missing: len(strings.TrimSpace(options.TargetBranch)) == 0},
	}
	for _, required := range requiredValues {
		if required.missing {
			return InvalidInputError{FieldName: required.fieldName, Message: requiredValueMessageConstant}
		}
	}
	return nil
}

func repositoryMissing(repository githubapi.RepositoryIdentifier) bool {
	return len(strings.TrimSpace(repository.Owner)) == 0 || len(strings.TrimSpace(repository.Name)) == 0
}
