package execshell

import (
	"fmt"
	"regexp"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
	redactedCredentialsReplacementConstant  = "${scheme}***@"
)

const (
	gitCloneSubcommandNameConstant      = "clone"
	gitRemoteSubcommandNameConstant     = "remote"
	gitFetchSubcommandNameConstant      = "fetch"
	gitCheckoutSubcommandNameConstant   = "checkout"
	gitRevParseSubcommandNameConstant   = "rev-parse"
	gitMergeBaseSubcommandNameConstant  = "merge-base"
	gitMergeSubcommandNameConstant      = "merge"
	gitCherryPickSubcommandNameConstant = "cherry-pick"
	gitAddSubcommandNameConstant        = "add"
	gitCommitSubcommandNameConstant     = "commit"
	gitPushSubcommandNameConstant       = "push"
	gitLogSubcommandNameConstant        = "log"
	gitNewBranchFlagConstant            = "-b"
	gitBranchFlagConstant               = "--branch"
	gitIsAncestorFlagConstant           = "--is-ancestor"
	gitMessageFlagConstant              = "-m"
	gitFetchAllRemotesLabelConstant     = "all remotes"
	gitNoEditCommitMessageLabelConstant = "prepared message"
)

const (
	gitCloneSubjectTemplateConstant           = "%s into %s"
	gitCloneBranchSubjectTemplateConstant     = "%s (branch %s) into %s"
	gitRemoteSubjectTemplateConstant          = "remote %s -> %s in %s"
	gitFetchSubjectTemplateConstant           = "%s from %s in %s"
	gitFetchWithoutRefsSubjectTemplate        = "from %s in %s"
	gitCheckoutSubjectTemplateConstant        = "%s to branch %s"
	gitCheckoutNewSubjectTemplateConstant     = "branch %s from %s in %s"
	gitRevisionSubjectTemplateConstant        = "%s in %s"
	gitAncestrySubjectTemplateConstant        = "whether %s is an ancestor of %s in %s"
	gitMergeSubjectTemplateConstant           = "%s into the current branch in %s"
	gitCherryPickSubjectTemplateConstant      = "commit %s in %s"
	gitAddSubjectTemplateConstant             = "%s in %s"
	gitCommitSubjectTemplateConstant          = "commit in %s with %q"
	gitPushSubjectTemplateConstant            = "%s to %s from %s"
	gitLogSubjectTemplateConstant             = "history %s in %s"
	failureWithExitCodeTemplateConstant       = "%s (exit code %d%s)"
	executionFailureWithCauseTemplateConstant = "%s: %s"
)

var credentialPattern = regexp.MustCompile(`(?P<scheme>[a-zA-Z][a-zA-Z0-9+.-]*://)[^/@\s]+@`)

// gitMessageTemplates holds the verb phrases used for each lifecycle stage of a git subcommand.
type gitMessageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var gitSubcommandTemplates = map[string]gitMessageTemplates{
	gitCloneSubcommandNameConstant:      {start: "Cloning %s", success: "Cloned %s", failure: "Failed to clone %s", executionFailure: "Unable to clone %s"},
	gitRemoteSubcommandNameConstant:     {start: "Configuring %s", success: "Configured %s", failure: "Failed to configure %s", executionFailure: "Unable to configure %s"},
	gitFetchSubcommandNameConstant:      {start: "Fetching %s", success: "Fetched %s", failure: "Failed to fetch %s", executionFailure: "Unable to fetch %s"},
	gitCheckoutSubcommandNameConstant:   {start: "Switching %s", success: "Switched %s", failure: "Failed to switch %s", executionFailure: "Unable to switch %s"},
	gitRevParseSubcommandNameConstant:   {start: "Resolving %s", success: "Resolved %s", failure: "Failed to resolve %s", executionFailure: "Unable to resolve %s"},
	gitMergeBaseSubcommandNameConstant:  {start: "Checking %s", success: "Checked %s", failure: "Check failed for %s", executionFailure: "Unable to check %s"},
	gitMergeSubcommandNameConstant:      {start: "Merging %s", success: "Merged %s", failure: "Failed to merge %s", executionFailure: "Unable to merge %s"},
	gitCherryPickSubcommandNameConstant: {start: "Cherry-picking %s", success: "Cherry-picked %s", failure: "Failed to cherry-pick %s", executionFailure: "Unable to cherry-pick %s"},
	gitAddSubcommandNameConstant:        {start: "Staging %s", success: "Staged %s", failure: "Failed to stage %s", executionFailure: "Unable to stage %s"},
	gitCommitSubcommandNameConstant:     {start: "Creating %s", success: "Created %s", failure: "Failed to create %s", executionFailure: "Unable to create %s"},
	gitPushSubcommandNameConstant:       {start: "Pushing %s", success: "Pushed %s", failure: "Failed to push %s", executionFailure: "Unable to push %s"},
	gitLogSubcommandNameConstant:        {start: "Reading %s", success: "Read %s", failure: "Failed to read %s", executionFailure: "Unable to read %s"},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	templates, known := gitSubcommandTemplates[subcommand]
	if !known {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subject := formatter.describeGitSubject(subcommand, command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		return fmt.Sprintf(failureWithExitCodeTemplateConstant, fmt.Sprintf(templates.failure, subject), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureWithCauseTemplateConstant, fmt.Sprintf(templates.executionFailure, subject), formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitSubject(subcommand string, command ShellCommand) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments[1:]
	positional := formatter.positionalArguments(arguments)

	switch subcommand {
	case gitCloneSubcommandNameConstant:
		repositoryURL := RedactCredentials(formatter.ensureValue(formatter.argumentAtIndex(positional, 0)))
		destination := formatter.ensureValue(formatter.argumentAtIndex(positional, 1))
		if branchName := findFlagValue(arguments, gitBranchFlagConstant); len(branchName) > 0 {
			return fmt.Sprintf(gitCloneBranchSubjectTemplateConstant, repositoryURL, branchName, destination)
		}
		return fmt.Sprintf(gitCloneSubjectTemplateConstant, repositoryURL, destination)
	case gitRemoteSubcommandNameConstant:
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(positional, 1))
		remoteURL := RedactCredentials(formatter.ensureValue(formatter.argumentAtIndex(positional, 2)))
		return fmt.Sprintf(gitRemoteSubjectTemplateConstant, remoteName, remoteURL, workingDirectory)
	case gitFetchSubcommandNameConstant:
		if len(positional) == 0 {
			return fmt.Sprintf(gitFetchWithoutRefsSubjectTemplate, gitFetchAllRemotesLabelConstant, workingDirectory)
		}
		if len(positional) == 1 {
			return fmt.Sprintf(gitFetchWithoutRefsSubjectTemplate, positional[0], workingDirectory)
		}
		return fmt.Sprintf(gitFetchSubjectTemplateConstant, strings.Join(positional[1:], ", "), positional[0], workingDirectory)
	case gitCheckoutSubcommandNameConstant:
		if newBranch := findFlagValue(arguments, gitNewBranchFlagConstant); len(newBranch) > 0 {
			startPoint := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
			return fmt.Sprintf(gitCheckoutNewSubjectTemplateConstant, newBranch, startPoint, workingDirectory)
		}
		return fmt.Sprintf(gitCheckoutSubjectTemplateConstant, workingDirectory, formatter.ensureValue(formatter.lastArgument(positional)))
	case gitRevParseSubcommandNameConstant:
		return fmt.Sprintf(gitRevisionSubjectTemplateConstant, formatter.ensureValue(formatter.lastArgument(positional)), workingDirectory)
	case gitMergeBaseSubcommandNameConstant:
		if containsArgument(arguments, gitIsAncestorFlagConstant) {
			return fmt.Sprintf(gitAncestrySubjectTemplateConstant, formatter.ensureValue(formatter.argumentAtIndex(positional, 0)), formatter.ensureValue(formatter.argumentAtIndex(positional, 1)), workingDirectory)
		}
		return fmt.Sprintf(gitRevisionSubjectTemplateConstant, strings.Join(positional, " "), workingDirectory)
	case gitMergeSubcommandNameConstant:
		return fmt.Sprintf(gitMergeSubjectTemplateConstant, formatter.ensureValue(formatter.lastArgument(positional)), workingDirectory)
	case gitCherryPickSubcommandNameConstant:
		return fmt.Sprintf(gitCherryPickSubjectTemplateConstant, formatter.ensureValue(formatter.lastArgument(positional)), workingDirectory)
	case gitAddSubcommandNameConstant:
		target := formatter.lastArgument(positional)
		if len(target) == 0 {
			target = strings.Join(arguments, " ")
		}
		return fmt.Sprintf(gitAddSubjectTemplateConstant, formatter.ensureValue(target), workingDirectory)
	case gitCommitSubcommandNameConstant:
		commitMessage := findFlagValue(arguments, gitMessageFlagConstant)
		if len(commitMessage) == 0 {
			commitMessage = gitNoEditCommitMessageLabelConstant
		}
		return fmt.Sprintf(gitCommitSubjectTemplateConstant, workingDirectory, commitMessage)
	case gitPushSubcommandNameConstant:
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
		reference := formatter.ensureValue(formatter.argumentAtIndex(positional, 1))
		return fmt.Sprintf(gitPushSubjectTemplateConstant, reference, RedactCredentials(remoteName), workingDirectory)
	case gitLogSubcommandNameConstant:
		return fmt.Sprintf(gitLogSubjectTemplateConstant, formatter.ensureValue(formatter.lastArgument(positional)), workingDirectory)
	default:
		return workingDirectory
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, describeCommand(command), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(RedactCredentials(standardError))
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return RedactCredentials(failure.Error())
}

// positionalArguments drops flags and the values of flags that take one.
func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, flagPrefixConstant) {
			if flagTakesValue(trimmed) {
				index++
			}
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) lastArgument(arguments []string) string {
	if len(arguments) == 0 {
		return emptyStringConstant
	}
	return arguments[len(arguments)-1]
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func flagTakesValue(flag string) bool {
	switch flag {
	case gitNewBranchFlagConstant, gitBranchFlagConstant, gitMessageFlagConstant, "--format", "--origin", "-c":
		return true
	default:
		return false
	}
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments)-1; index++ {
		if strings.TrimSpace(arguments[index]) == flag {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}

// RedactCredentials masks userinfo embedded in URLs, e.g. https://token@host/ becomes https://***@host/.
func RedactCredentials(text string) string {
	return credentialPattern.ReplaceAllString(text, redactedCredentialsReplacementConstant)
}

// RedactArguments returns a copy of arguments with URL credentials masked.
func RedactArguments(arguments []string) []string {
	redacted := make([]string, len(arguments))
	for index, argument := range arguments {
		redacted[index] = RedactCredentials(argument)
	}
	return redacted
}
