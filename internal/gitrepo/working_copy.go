package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scylladb/repobot/internal/execshell"
)

const (
	gitCloneSubcommandConstant        = "clone"
	gitRemoteSubcommandConstant       = "remote"
	gitRemoteAddActionConstant        = "add"
	gitFetchSubcommandConstant        = "fetch"
	gitCheckoutSubcommandConstant     = "checkout"
	gitNewBranchFlagConstant          = "-b"
	gitBranchFlagConstant             = "--branch"
	gitRevParseSubcommandConstant     = "rev-parse"
	gitShortHashFlagTemplateConstant  = "--short=%d"
	gitMergeBaseSubcommandConstant    = "merge-base"
	gitIsAncestorFlagConstant         = "--is-ancestor"
	gitMergeSubcommandConstant        = "merge"
	gitNoEditFlagConstant             = "--no-edit"
	gitCherryPickSubcommandConstant   = "cherry-pick"
	gitAddSubcommandConstant          = "add"
	gitAddAllFlagConstant             = "-A"
	gitCommitSubcommandConstant       = "commit"
	gitPushSubcommandConstant         = "push"
	gitForceFlagConstant              = "--force"
	gitLogSubcommandConstant          = "log"
	gitNoMergesFlagConstant           = "--no-merges"
	gitOneLineFormatFlagConstant      = "--format=%h %s"
	gitRevisionRangeTemplateConstant  = "%s..%s"
	remoteBranchReferenceTemplate     = "%s/%s"
	terminalPromptEnvironmentConstant = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledConstant    = "0"
	authorNameEnvironmentConstant     = "GIT_AUTHOR_NAME"
	authorEmailEnvironmentConstant    = "GIT_AUTHOR_EMAIL"
	committerNameEnvironmentConstant  = "GIT_COMMITTER_NAME"
	committerEmailEnvironmentConstant = "GIT_COMMITTER_EMAIL"
	commitLineSeparatorConstant       = " "
	// OriginRemoteNameConstant is the remote created by clone.
	OriginRemoteNameConstant = "origin"
	// DefaultShortHashLengthConstant is the abbreviated hash length used for branch names.
	DefaultShortHashLengthConstant = 7
	// notAncestorExitCodeConstant is returned by merge-base --is-ancestor when the answer is no.
	notAncestorExitCodeConstant = 1
	// conflictExitCodeConstant is returned by merge and cherry-pick when they stop on conflicts.
	conflictExitCodeConstant = 1

	executorNotConfiguredMessageConstant  = "git executor not configured"
	directoryNotConfiguredMessageConstant = "working copy directory not configured"
	emptyRevisionMessageConstant          = "revision %s resolved to an empty hash"
	conflictErrorTemplateConstant         = "%s of %s stopped on conflicts in %s"
)

var (
	// ErrGitExecutorNotConfigured indicates a working copy was constructed without an executor.
	ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrDirectoryNotConfigured indicates a working copy was constructed without a directory.
	ErrDirectoryNotConfigured = errors.New(directoryNotConfiguredMessageConstant)
)

// GitExecutor exposes the subset of shell execution used by working copies.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Identity is the author and committer recorded on commits created by the working copy.
type Identity struct {
	Name  string
	Email string
}

// ConflictOperation names the git operation that stopped on conflicts.
type ConflictOperation string

// Operations that can stop on conflicts.
const (
	ConflictOperationMerge      ConflictOperation = ConflictOperation(gitMergeSubcommandConstant)
	ConflictOperationCherryPick ConflictOperation = ConflictOperation(gitCherryPickSubcommandConstant)
)

// ConflictError reports a merge or cherry-pick that left unmerged paths behind.
type ConflictError struct {
	Operation ConflictOperation
	Revision  string
	Directory string
	Cause     error
}

// Error describes the conflicting operation.
func (conflictError ConflictError) Error() string {
	return fmt.Sprintf(conflictErrorTemplateConstant, conflictError.Operation, conflictError.Revision, conflictError.Directory)
}

// Unwrap exposes the failed git command.
func (conflictError ConflictError) Unwrap() error {
	return conflictError.Cause
}

// CommitSummary is one line of abbreviated history.
type CommitSummary struct {
	ShortHash string
	Subject   string
}

// WorkingCopy runs git commands inside a single local checkout.
type WorkingCopy struct {
	executor    GitExecutor
	directory   string
	environment map[string]string
}

// NewWorkingCopy binds a working copy to directory. The directory may be empty until Clone runs.
func NewWorkingCopy(executor GitExecutor, directory string, identity Identity) (*WorkingCopy, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	trimmedDirectory := strings.TrimSpace(directory)
	if len(trimmedDirectory) == 0 {
		return nil, ErrDirectoryNotConfigured
	}

	environment := map[string]string{terminalPromptEnvironmentConstant: terminalPromptDisabledConstant}
	if trimmedName := strings.TrimSpace(identity.Name); len(trimmedName) > 0 {
		environment[authorNameEnvironmentConstant] = trimmedName
		environment[committerNameEnvironmentConstant] = trimmedName
	}
	if trimmedEmail := strings.TrimSpace(identity.Email); len(trimmedEmail) > 0 {
		environment[authorEmailEnvironmentConstant] = trimmedEmail
		environment[committerEmailEnvironmentConstant] = trimmedEmail
	}

	return &WorkingCopy{executor: executor, directory: trimmedDirectory, environment: environment}, nil
}

// Directory returns the checkout location.
func (workingCopy *WorkingCopy) Directory() string {
	return workingCopy.directory
}

// Clone clones remoteURL into the working copy directory. An empty branch clones the default branch.
func (workingCopy *WorkingCopy) Clone(executionContext context.Context, remoteURL string, branch string) error {
	arguments := []string{gitCloneSubcommandConstant}
	if trimmedBranch := strings.TrimSpace(branch); len(trimmedBranch) > 0 {
		arguments = append(arguments, gitBranchFlagConstant, trimmedBranch)
	}
	arguments = append(arguments, remoteURL, workingCopy.directory)
	_, cloneError := workingCopy.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		EnvironmentVariables: workingCopy.environment,
	})
	return cloneError
}

// AddRemote registers an additional remote.
func (workingCopy *WorkingCopy) AddRemote(executionContext context.Context, remoteName string, remoteURL string) error {
	_, remoteError := workingCopy.run(executionContext, gitRemoteSubcommandConstant, gitRemoteAddActionConstant, remoteName, remoteURL)
	return remoteError
}

// Fetch fetches branch from remoteName.
func (workingCopy *WorkingCopy) Fetch(executionContext context.Context, remoteName string, branch string) error {
	_, fetchError := workingCopy.run(executionContext, gitFetchSubcommandConstant, remoteName, branch)
	return fetchError
}

// Checkout switches to an existing branch.
func (workingCopy *WorkingCopy) Checkout(executionContext context.Context, branch string) error {
	_, checkoutError := workingCopy.run(executionContext, gitCheckoutSubcommandConstant, branch)
	return checkoutError
}

// CreateBranch creates branch at startPoint and switches to it.
func (workingCopy *WorkingCopy) CreateBranch(executionContext context.Context, branch string, startPoint string) error {
	_, createError := workingCopy.run(executionContext, gitCheckoutSubcommandConstant, gitNewBranchFlagConstant, branch, startPoint)
	return createError
}

// ResolveShortHash returns the abbreviated hash of revision.
func (workingCopy *WorkingCopy) ResolveShortHash(executionContext context.Context, revision string, length int) (string, error) {
	if length <= 0 {
		length = DefaultShortHashLengthConstant
	}
	result, resolveError := workingCopy.run(executionContext, gitRevParseSubcommandConstant, fmt.Sprintf(gitShortHashFlagTemplateConstant, length), revision)
	if resolveError != nil {
		return "", resolveError
	}
	shortHash := strings.TrimSpace(result.StandardOutput)
	if len(shortHash) == 0 {
		return "", fmt.Errorf(emptyRevisionMessageConstant, revision)
	}
	return shortHash, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (workingCopy *WorkingCopy) IsAncestor(executionContext context.Context, ancestor string, descendant string) (bool, error) {
	_, ancestryError := workingCopy.run(executionContext, gitMergeBaseSubcommandConstant, gitIsAncestorFlagConstant, ancestor, descendant)
	if ancestryError == nil {
		return true, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(ancestryError, &failedError) && failedError.ExitCode() == notAncestorExitCodeConstant {
		return false, nil
	}
	return false, ancestryError
}

// Merge merges revision into the current branch. Conflicts are reported as ConflictError.
func (workingCopy *WorkingCopy) Merge(executionContext context.Context, revision string) error {
	_, mergeError := workingCopy.run(executionContext, gitMergeSubcommandConstant, gitNoEditFlagConstant, revision)
	return workingCopy.classifyConflict(ConflictOperationMerge, revision, mergeError)
}

// CherryPick applies commit onto the current branch. Conflicts are reported as ConflictError.
func (workingCopy *WorkingCopy) CherryPick(executionContext context.Context, commit string) error {
	_, cherryPickError := workingCopy.run(executionContext, gitCherryPickSubcommandConstant, commit)
	return workingCopy.classifyConflict(ConflictOperationCherryPick, commit, cherryPickError)
}

// StageAll stages every change in the worktree, conflict markers included.
func (workingCopy *WorkingCopy) StageAll(executionContext context.Context) error {
	_, stageError := workingCopy.run(executionContext, gitAddSubcommandConstant, gitAddAllFlagConstant)
	return stageError
}

// CommitPrepared commits the index with the message git prepared for the interrupted operation.
func (workingCopy *WorkingCopy) CommitPrepared(executionContext context.Context) error {
	_, commitError := workingCopy.run(executionContext, gitCommitSubcommandConstant, gitNoEditFlagConstant)
	return commitError
}

// ForcePush pushes branch to remoteName, overwriting the remote branch.
func (workingCopy *WorkingCopy) ForcePush(executionContext context.Context, remoteName string, branch string) error {
	_, pushError := workingCopy.run(executionContext, gitPushSubcommandConstant, gitForceFlagConstant, remoteName, branch)
	return pushError
}

// ListCommits returns the non-merge commits reachable from head but not from base, newest first.
func (workingCopy *WorkingCopy) ListCommits(executionContext context.Context, base string, head string) ([]CommitSummary, error) {
	result, logError := workingCopy.run(executionContext, gitLogSubcommandConstant, gitNoMergesFlagConstant, gitOneLineFormatFlagConstant, fmt.Sprintf(gitRevisionRangeTemplateConstant, base, head))
	if logError != nil {
		return nil, logError
	}
	return parseCommitSummaries(result.StandardOutput), nil
}

// RemoteBranchReference returns the remote-tracking reference of branch on remoteName.
func RemoteBranchReference(remoteName string, branch string) string {
	return fmt.Sprintf(remoteBranchReferenceTemplate, remoteName, branch)
}

func (workingCopy *WorkingCopy) run(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	return workingCopy.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingCopy.directory,
		EnvironmentVariables: workingCopy.environment,
	})
}

func (workingCopy *WorkingCopy) classifyConflict(operation ConflictOperation, revision string, operationError error) error {
	if operationError == nil {
		return nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(operationError, &failedError) && failedError.ExitCode() == conflictExitCodeConstant {
		return ConflictError{Operation: operation, Revision: revision, Directory: workingCopy.directory, Cause: operationError}
	}
	return operationError
}

func parseCommitSummaries(output string) []CommitSummary {
	var summaries []CommitSummary
	for _, line := range strings.Split(output, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		shortHash, subject, _ := strings.Cut(trimmedLine, commitLineSeparatorConstant)
		summaries = append(summaries, CommitSummary{ShortHash: shortHash, Subject: strings.TrimSpace(subject)})
	}
	return summaries
}
