package reposync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scylladb/repobot/internal/conflicts"
	"github.com/scylladb/repobot/internal/dependencies"
	"github.com/scylladb/repobot/internal/githubapi"
	"github.com/scylladb/repobot/internal/gitrepo"
	"github.com/scylladb/repobot/internal/logfields"
	"github.com/scylladb/repobot/internal/workspace"
)

const (
	commandUseConstant              = "sync"
	commandShortDescriptionConstant = "Open a pull request that brings a source branch into a target branch"
	commandLongDescriptionConstant  = "sync clones the target repository, merges the source branch into a sync-branch-<hash> branch, pushes it and opens a pull request. Conflicts are committed as-is and the pull request is opened as a draft."

	targetRepositoryFlagNameConstant  = "target-repo"
	targetRepositoryFlagUsageConstant = "Target repository (owner/name) receiving the pull request"
	targetBranchFlagNameConstant      = "target-branch"
	targetBranchFlagUsageConstant     = "Branch of the target repository to sync into"
	sourceRepositoryFlagNameConstant  = "source-repo"
	sourceRepositoryFlagUsageConstant = "Source repository (owner/name) to sync from"
	sourceBranchFlagNameConstant      = "source-branch"
	sourceBranchFlagUsageConstant     = "Branch of the source repository to sync from"
	dryRunFlagNameConstant            = "dry-run"
	dryRunFlagUsageConstant           = "Skip git push and log the pull request instead of opening it"

	missingFlagErrorTemplateConstant    = "--%s is required"
	repositoryFlagErrorTemplateConstant = "invalid --%s: %w"
	tokenErrorTemplateConstant          = "sync requires a GitHub token: %w"
	workflowFailedMessageConstant       = "Repository sync failed"
	workflowFinishedMessageConstant     = "Repository sync finished"
)

// ServiceProvider constructs a sync executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (SyncExecutor, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the sync Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  gitrepo.GitExecutor
	GitHubClientFactory          dependencies.GitHubClientFactory
	TokenProvider                dependencies.TokenProvider
	Workspace                    *workspace.Manager
	ConflictStrategy             conflicts.ResolutionStrategy
	ServiceProvider              ServiceProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	RuntimeSettingsProvider      func() dependencies.RuntimeSettings
}

type commandOptions struct {
	targetRepository githubapi.RepositoryIdentifier
	targetBranch     string
	sourceRepository githubapi.RepositoryIdentifier
	sourceBranch     string
	dryRun           bool
}

// Build constructs the sync command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runSync,
	}

	command.Flags().String(targetRepositoryFlagNameConstant, "", targetRepositoryFlagUsageConstant)
	command.Flags().String(targetBranchFlagNameConstant, "", targetBranchFlagUsageConstant)
	command.Flags().String(sourceRepositoryFlagNameConstant, "", sourceRepositoryFlagUsageConstant)
	command.Flags().String(sourceBranchFlagNameConstant, "", sourceBranchFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runSync(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	token, tokenError := dependencies.ResolveToken(builder.TokenProvider)
	if tokenError != nil {
		return fmt.Errorf(tokenErrorTemplateConstant, tokenError)
	}

	logger := dependencies.WithConfigurationFile(command.Context(), builder.resolveLogger())
	settings := builder.resolveRuntimeSettings()

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.humanReadableLogging())
	if executorError != nil {
		return executorError
	}

	githubClient, clientError := dependencies.ResolveGitHubClient(builder.GitHubClientFactory, token, settings, options.dryRun, logger)
	if clientError != nil {
		return clientError
	}

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:       logger,
		GitHubClient: githubClient,
		WorkingCopyFactory: func(directory string) (WorkingCopy, error) {
			return gitrepo.NewWorkingCopy(gitExecutor, directory, settings.Identity)
		},
		Workspace:        dependencies.ResolveWorkspace(builder.Workspace, settings, logger),
		ConflictStrategy: dependencies.ResolveConflictStrategy(builder.ConflictStrategy, logger),
	})
	if serviceError != nil {
		return serviceError
	}

	result, syncError := service.Execute(command.Context(), SyncOptions{
		SourceRepository: options.sourceRepository,
		SourceBranch:     options.sourceBranch,
		TargetRepository: options.targetRepository,
		TargetBranch:     options.targetBranch,
		Token:            token,
		DryRun:           options.dryRun,
	})
	if syncError != nil {
		if errors.Is(syncError, context.Canceled) || errors.Is(syncError, context.DeadlineExceeded) {
			return syncError
		}
		logger.Error(
			workflowFailedMessageConstant,
			logfields.Repository(options.targetRepository.String()),
			logfields.SourceRepository(options.sourceRepository.String()),
			zap.Error(syncError),
		)
		return nil
	}

	logger.Info(
		workflowFinishedMessageConstant,
		logfields.Repository(options.targetRepository.String()),
		logfields.Outcome(string(result.Outcome)),
		logfields.Branch(result.SyncBranch),
		logfields.PullRequest(result.PullRequest.Number),
	)
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	targetRepository := configuration.TargetRepository
	targetBranch := configuration.TargetBranch
	sourceRepository := configuration.SourceRepository
	sourceBranch := configuration.SourceBranch
	dryRun := configuration.DryRun

	if command != nil {
		flags := command.Flags()
		if flags.Changed(targetRepositoryFlagNameConstant) {
			targetRepository, _ = flags.GetString(targetRepositoryFlagNameConstant)
		}
		if flags.Changed(targetBranchFlagNameConstant) {
			targetBranch, _ = flags.GetString(targetBranchFlagNameConstant)
		}
		if flags.Changed(sourceRepositoryFlagNameConstant) {
			sourceRepository, _ = flags.GetString(sourceRepositoryFlagNameConstant)
		}
		if flags.Changed(sourceBranchFlagNameConstant) {
			sourceBranch, _ = flags.GetString(sourceBranchFlagNameConstant)
		}
		if flags.Changed(dryRunFlagNameConstant) {
			dryRun, _ = flags.GetBool(dryRunFlagNameConstant)
		}
	}

	requiredValues := []struct {
		flagName string
		value    string
	}{
		{flagName: targetRepositoryFlagNameConstant, value: targetRepository},
		{flagName: sourceRepositoryFlagNameConstant, value: sourceRepository},
		{flagName: targetBranchFlagNameConstant, value: targetBranch},
		{flagName: sourceBranchFlagNameConstant, value: sourceBranch},
	}
	for _, required := range requiredValues {
		if len(strings.TrimSpace(required.value)) == 0 {
			return commandOptions{}, fmt.Errorf(missingFlagErrorTemplateConstant, required.flagName)
		}
	}

	parsedTargetRepository, targetParseError := githubapi.ParseRepositoryIdentifier(targetRepository)
	if targetParseError != nil {
		return commandOptions{}, fmt.Errorf(repositoryFlagErrorTemplateConstant, targetRepositoryFlagNameConstant, targetParseError)
	}
	parsedSourceRepository, sourceParseError := githubapi.ParseRepositoryIdentifier(sourceRepository)
	if sourceParseError != nil {
		return commandOptions{}, fmt.Errorf(repositoryFlagErrorTemplateConstant, sourceRepositoryFlagNameConstant, sourceParseError)
	}

	return commandOptions{
		targetRepository: parsedTargetRepository,
		targetBranch:     strings.TrimSpace(targetBranch),
		sourceRepository: parsedSourceRepository,
		sourceBranch:     strings.TrimSpace(sourceBranch),
		dryRun:           dryRun,
	}, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveRuntimeSettings() dependencies.RuntimeSettings {
	if builder.RuntimeSettingsProvider == nil {
		return dependencies.RuntimeSettings{}
	}
	return builder.RuntimeSettingsProvider()
}

func (builder *CommandBuilder) resolveService(serviceDependencies ServiceDependencies) (SyncExecutor, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(serviceDependencies)
	}
	return NewService(serviceDependencies)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}
