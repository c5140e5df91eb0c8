// Package conflicts resolves interrupted merges and cherry-picks so that the
// result can still be pushed and reviewed.
package conflicts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scylladb/repobot/internal/execshell"
)

const (
	// StageAllStrategyNameConstant names the strategy that commits conflict markers as-is.
	StageAllStrategyNameConstant = "stage-all"

	stageFailureTemplateConstant      = "stage conflicted changes: %w"
	commitFailureTemplateConstant     = "commit conflicted changes: %w"
	nothingToCommitMessageConstant    = "Nothing to commit after staging conflicted changes"
	nothingToCommitOutputConstant     = "nothing to commit"
	workingCopyMissingMessageConstant = "conflict resolution working copy not configured"
	logFieldStrategyConstant          = "strategy"
	logFieldDirectoryConstant         = "working_directory"
)

// ErrWorkingCopyNotConfigured indicates Resolve was called without a working copy.
var ErrWorkingCopyNotConfigured = errors.New(workingCopyMissingMessageConstant)

// WorkingCopy is the subset of gitrepo.WorkingCopy a strategy needs.
type WorkingCopy interface {
	Directory() string
	StageAll(executionContext context.Context) error
	CommitPrepared(executionContext context.Context) error
}

// ResolutionStrategy turns a conflicted working copy into a committable state.
type ResolutionStrategy interface {
	Name() string
	Resolve(executionContext context.Context, workingCopy WorkingCopy) error
}

// StageAllStrategy stages every path, conflict markers included, and commits with git's prepared message.
// The resulting pull request is opened as a draft so that a human finishes the resolution.
type StageAllStrategy struct {
	Logger *zap.Logger
}

// NewStageAllStrategy constructs the default strategy.
func NewStageAllStrategy(logger *zap.Logger) StageAllStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return StageAllStrategy{Logger: logger}
}

// Name identifies the strategy in logs.
func (strategy StageAllStrategy) Name() string {
	return StageAllStrategyNameConstant
}

// Resolve stages and commits. A commit that fails because git has nothing to commit is tolerated.
func (strategy StageAllStrategy) Resolve(executionContext context.Context, workingCopy WorkingCopy) error {
	if workingCopy == nil {
		return ErrWorkingCopyNotConfigured
	}
	if stageError := workingCopy.StageAll(executionContext); stageError != nil {
		return fmt.Errorf(stageFailureTemplateConstant, stageError)
	}

	commitError := workingCopy.CommitPrepared(executionContext)
	if commitError == nil {
		return nil
	}

	if isNothingToCommit(commitError) {
		strategy.logger().Info(nothingToCommitMessageConstant,
			zap.String(logFieldStrategyConstant, strategy.Name()),
			zap.String(logFieldDirectoryConstant, workingCopy.Directory()),
		)
		return nil
	}
	return fmt.Errorf(commitFailureTemplateConstant, commitError)
}

// isNothingToCommit reports whether git refused the commit only because the index matched HEAD.
// git prints the reason to stdout, older versions to stderr.
func isNothingToCommit(commitError error) bool {
	var failedError execshell.CommandFailedError
	if !errors.As(commitError, &failedError) {
		return false
	}
	return strings.Contains(failedError.Result.StandardOutput, nothingToCommitOutputConstant) ||
		strings.Contains(failedError.Result.StandardError, nothingToCommitOutputConstant)
}

func (strategy StageAllStrategy) logger() *zap.Logger {
	if strategy.Logger == nil {
		return zap.NewNop()
	}
	return strategy.Logger
}
