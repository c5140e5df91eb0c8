package backport

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
	commandUseConstant              = "backport"
	commandShortDescriptionConstant = "Open backport pull requests for promoted pull requests"
	commandLongDescriptionConstant  = "backport scans closed pull requests of the base branch. Every pull request labeled with the promoted label and backport/<major>.<minor> is cherry-picked onto branch-<major>.<minor> and proposed as backport/<number>/to-<major>.<minor>. Conflicts are committed as-is and the pull request is opened as a draft."

	repositoryFlagNameConstant           = "repository"
	repositoryFlagUsageConstant          = "Repository (owner/name) to scan and open backports in"
	baseBranchFlagNameConstant           = "base-branch"
	baseBranchFlagUsageConstant          = "Branch whose closed pull requests are scanned"
	promotedLabelFlagNameConstant        = "promoted-label"
	promotedLabelFlagUsageConstant       = "Label marking pull requests eligible for backport"
	versionBranchPrefixFlagNameConstant  = "version-branch-prefix"
	versionBranchPrefixFlagUsageConstant = "Prefix of release branches, followed by the backport version"
	dryRunFlagNameConstant               = "dry-run"
	dryRunFlagUsageConstant              = "Skip git push and log the pull requests instead of opening them"

	repositoryFlagErrorTemplateConstant = "invalid --%s: %w"
	tokenErrorTemplateConstant          = "backport requires a GitHub token: %w"
	runFailedMessageConstant            = "Backport run failed"
	itemMessageConstant                 = "Backport item finished"
	runSummaryMessageConstant           = "Backport run finished"
	logFieldOpenedConstant              = "opened"
	logFieldDraftConstant               = "draft"
	logFieldSkippedConstant             = "skipped"
	logFieldAlreadyOpenConstant         = "already_open"
)

// ServiceProvider constructs a backport executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (RunExecutor, error)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the backport Cobra command.
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

// Build constructs the backport command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runBackport,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(repositoryFlagNameConstant, defaults.Repository, repositoryFlagUsageConstant)
	command.Flags().String(baseBranchFlagNameConstant, defaults.BaseBranch, baseBranchFlagUsageConstant)
	command.Flags().String(promotedLabelFlagNameConstant, defaults.PromotedLabel, promotedLabelFlagUsageConstant)
	command.Flags().String(versionBranchPrefixFlagNameConstant, defaults.VersionBranchPrefix, versionBranchPrefixFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runBackport(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	token, tokenError := dependencies.ResolveToken(builder.TokenProvider)
	if tokenError != nil {
		return fmt.Errorf(tokenErrorTemplateConstant, tokenError)
	}
	options.Token = token

	logger := dependencies.WithConfigurationFile(command.Context(), builder.resolveLogger())
	settings := builder.resolveRuntimeSettings()

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.humanReadableLogging())
	if executorError != nil {
		return executorError
	}

	githubClient, clientError := dependencies.ResolveGitHubClient(builder.GitHubClientFactory, token, settings, options.DryRun, logger)
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

	summary, runError := service.Execute(command.Context(), options)
	builder.logSummary(logger, options.Repository, summary)
	if runError != nil {
		if errors.Is(runError, context.Canceled) || errors.Is(runError, context.DeadlineExceeded) {
			return runError
		}
		logger.Error(runFailedMessageConstant, logfields.Repository(options.Repository.String()), zap.Error(runError))
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (RunOptions, error) {
	configuration := builder.resolveConfiguration()

	repository := configuration.Repository
	baseBranch := configuration.BaseBranch
	promotedLabel := configuration.PromotedLabel
	versionBranchPrefix := configuration.VersionBranchPrefix
	dryRun := configuration.DryRun

	if command != nil {
		flags := command.Flags()
		if flags.Changed(repositoryFlagNameConstant) {
			repository, _ = flags.GetString(repositoryFlagNameConstant)
		}
		if flags.Changed(baseBranchFlagNameConstant) {
			baseBranch, _ = flags.GetString(baseBranchFlagNameConstant)
		}
		if flags.Changed(promotedLabelFlagNameConstant) {
			promotedLabel, _ = flags.GetString(promotedLabelFlagNameConstant)
		}
		if flags.Changed(versionBranchPrefixFlagNameConstant) {
			versionBranchPrefix, _ = flags.GetString(versionBranchPrefixFlagNameConstant)
		}
		if flags.Changed(dryRunFlagNameConstant) {
			dryRun, _ = flags.GetBool(dryRunFlagNameConstant)
		}
	}

	parsedRepository, parseError := githubapi.ParseRepositoryIdentifier(repository)
	if parseError != nil {
		return RunOptions{}, fmt.Errorf(repositoryFlagErrorTemplateConstant, repositoryFlagNameConstant, parseError)
	}

	options := RunOptions{
		Repository:          parsedRepository,
		BaseBranch:          strings.TrimSpace(baseBranch),
		PromotedLabel:       strings.TrimSpace(promotedLabel),
		VersionBranchPrefix: strings.TrimSpace(versionBranchPrefix),
		DryRun:              dryRun,
	}
	if validationError := validateOptions(options); validationError != nil {
		return RunOptions{}, validationError
	}
	return options, nil
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

func (builder *CommandBuilder) resolveService(serviceDependencies ServiceDependencies) (RunExecutor, error) {
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

func (builder *CommandBuilder) logSummary(logger *zap.Logger, repository githubapi.RepositoryIdentifier, summary RunSummary) {
	for _, item := range summary.Items {
		fields := []zap.Field{
			logfields.Repository(repository.String()),
			logfields.PullRequest(item.SourcePullRequest),
			logfields.Version(item.Version),
			logfields.Branch(item.Branch),
			logfields.Outcome(string(item.Outcome)),
		}
		if len(item.PullRequest.HTMLURL) > 0 {
			fields = append(fields, logfields.PullRequestURL(item.PullRequest.HTMLURL))
		}
		if len(item.Reason) > 0 {
			fields = append(fields, logfields.Reason(item.Reason))
		}
		logger.Info(itemMessageConstant, fields...)
	}

	logger.Info(
		runSummaryMessageConstant,
		logfields.Repository(repository.String()),
		zap.Int(logFieldOpenedConstant, summary.Count(OutcomeOpened)),
		zap.Int(logFieldDraftConstant, summary.Count(OutcomeDraft)),
		zap.Int(logFieldSkippedConstant, summary.Count(OutcomeSkipped)),
		zap.Int(logFieldAlreadyOpenConstant, summary.Count(OutcomeAlreadyOpen)),
	)
}
