package conflicts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/scylladb/repobot/internal/conflicts"
	"github.com/scylladb/repobot/internal/execshell"
)

type recordingWorkingCopy struct {
	stageError  error
	commitError error
	operations  []string
}

func (workingCopy *recordingWorkingCopy) Directory() string {
	return "/tmp/conflicted"
}

func (workingCopy *recordingWorkingCopy) StageAll(context.Context) error {
	workingCopy.operations = append(workingCopy.operations, "stage")
	return workingCopy.stageError
}

func (workingCopy *recordingWorkingCopy) CommitPrepared(context.Context) error {
	workingCopy.operations = append(workingCopy.operations, "commit")
	return workingCopy.commitError
}

func TestStageAllStrategyResolve(testInstance *testing.T) {
	nothingToCommit := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"commit", "--no-edit"}}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardOutput: "nothing to commit, working tree clean"},
	}
	unknownIdentity := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"commit", "--no-edit"}}},
		Result:  execshell.ExecutionResult{ExitCode: 128, StandardError: "Author identity unknown\n\n*** Please tell me who you are."},
	}
	hookRejected := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"commit", "--no-edit"}}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "pre-commit hook rejected the commit"},
	}

	testCases := []struct {
		name               string
		workingCopy        *recordingWorkingCopy
		expectedError      string
		expectedOperations []string
		expectedInfoLogs   int
	}{
		{
			name:               "stage_and_commit",
			workingCopy:        &recordingWorkingCopy{},
			expectedOperations: []string{"stage", "commit"},
		},
		{
			name:               "nothing_to_commit_tolerated",
			workingCopy:        &recordingWorkingCopy{commitError: nothingToCommit},
			expectedOperations: []string{"stage", "commit"},
			expectedInfoLogs:   1,
		},
		{
			name:               "commit_identity_failure",
			workingCopy:        &recordingWorkingCopy{commitError: unknownIdentity},
			expectedError:      "commit conflicted changes",
			expectedOperations: []string{"stage", "commit"},
		},
		{
			name:               "commit_hook_rejection",
			workingCopy:        &recordingWorkingCopy{commitError: hookRejected},
			expectedError:      "commit conflicted changes",
			expectedOperations: []string{"stage", "commit"},
		},
		{
			name:               "stage_failure",
			workingCopy:        &recordingWorkingCopy{stageError: errors.New("index locked")},
			expectedError:      "stage conflicted changes: index locked",
			expectedOperations: []string{"stage"},
		},
		{
			name:               "commit_execution_failure",
			workingCopy:        &recordingWorkingCopy{commitError: execshell.CommandExecutionError{Cause: errors.New("git missing")}},
			expectedError:      "commit conflicted changes",
			expectedOperations: []string{"stage", "commit"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.InfoLevel)
			strategy := conflicts.NewStageAllStrategy(zap.New(observerCore))

			resolveError := strategy.Resolve(context.Background(), testCase.workingCopy)
			if len(testCase.expectedError) > 0 {
				require.ErrorContains(testInstance, resolveError, testCase.expectedError)
			} else {
				require.NoError(testInstance, resolveError)
			}
			require.Equal(testInstance, testCase.expectedOperations, testCase.workingCopy.operations)
			require.Len(testInstance, observedLogs.All(), testCase.expectedInfoLogs)
		})
	}
}

func TestStageAllStrategyRequiresWorkingCopy(testInstance *testing.T) {
	strategy := conflicts.NewStageAllStrategy(nil)
	require.Equal(testInstance, conflicts.StageAllStrategyNameConstant, strategy.Name())
	require.ErrorIs(testInstance, strategy.Resolve(context.Background(), nil), conflicts.ErrWorkingCopyNotConfigured)
}
