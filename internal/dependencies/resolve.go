// Package dependencies builds the default collaborators shared by the sync and
// backport commands when a command builder does not inject its own.
package dependencies

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scylladb/repobot/internal/conflicts"
	"github.com/scylladb/repobot/internal/execshell"
	"github.com/scylladb/repobot/internal/githubapi"
	"github.com/scylladb/repobot/internal/githubauth"
	"github.com/scylladb/repobot/internal/gitrepo"
	"github.com/scylladb/repobot/internal/logfields"
	"github.com/scylladb/repobot/internal/ui"
	"github.com/scylladb/repobot/internal/utils"
	"github.com/scylladb/repobot/internal/workspace"
)

const (
	githubClientCreationErrorTemplateConstant = "unable to construct GitHub client: %w"
	dryRunClientCreationErrorTemplateConstant = "unable to construct dry-run GitHub client: %w"
)

// RuntimeSettings carries the configuration shared by every command.
type RuntimeSettings struct {
	GitHubAPIURL  string
	Identity      gitrepo.Identity
	WorkspaceRoot string
}

// TokenProvider returns the GitHub token or an error when none is configured.
type TokenProvider func() (string, error)

// GitHubClientFactory constructs a GitHub client for token.
type GitHubClientFactory func(token string, settings RuntimeSettings) (githubapi.Client, error)

// ResolveToken returns the token from provider, or from the process environment when provider is nil.
func ResolveToken(provider TokenProvider) (string, error) {
	if provider != nil {
		return provider()
	}
	return githubauth.RequireToken(nil)
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
// Human-readable logging renders command events through the console observer.
func ResolveGitExecutor(existing gitrepo.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (gitrepo.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	if humanReadableLogging {
		return execshell.NewShellExecutorWithObserver(commandRunner, ui.NewConsoleCommandEventLogger(logger))
	}
	return execshell.NewShellExecutor(logger, commandRunner)
}

// ResolveGitHubClient returns a client from factory, or a REST client, wrapped in a DryRunClient when dryRun is set.
func ResolveGitHubClient(factory GitHubClientFactory, token string, settings RuntimeSettings, dryRun bool, logger *zap.Logger) (githubapi.Client, error) {
	var client githubapi.Client
	if factory != nil {
		providedClient, factoryError := factory(token, settings)
		if factoryError != nil {
			return nil, fmt.Errorf(githubClientCreationErrorTemplateConstant, factoryError)
		}
		client = providedClient
	} else {
		restClient, creationError := githubapi.NewClient(githubapi.ClientOptions{
			Token:   token,
			BaseURL: strings.TrimSpace(settings.GitHubAPIURL),
		})
		if creationError != nil {
			return nil, fmt.Errorf(githubClientCreationErrorTemplateConstant, creationError)
		}
		client = restClient
	}

	if !dryRun {
		return client, nil
	}
	dryRunClient, dryRunError := githubapi.NewDryRunClient(client, logger)
	if dryRunError != nil {
		return nil, fmt.Errorf(dryRunClientCreationErrorTemplateConstant, dryRunError)
	}
	return dryRunClient, nil
}

// ResolveWorkspace returns the provided manager or one rooted at settings.WorkspaceRoot.
func ResolveWorkspace(existing *workspace.Manager, settings RuntimeSettings, logger *zap.Logger) *workspace.Manager {
	if existing != nil {
		return existing
	}
	return workspace.NewManager(workspace.OSFileSystem{}, logger, settings.WorkspaceRoot)
}

// ResolveConflictStrategy returns the provided strategy or the stage-all default.
func ResolveConflictStrategy(existing conflicts.ResolutionStrategy, logger *zap.Logger) conflicts.ResolutionStrategy {
	if existing != nil {
		return existing
	}
	return conflicts.NewStageAllStrategy(logger)
}

// WithConfigurationFile tags logger with the configuration file recorded in executionContext.
// The logger is returned unchanged when the run uses only embedded defaults.
func WithConfigurationFile(executionContext context.Context, logger *zap.Logger) *zap.Logger {
	configurationFilePath, available := utils.NewCommandContextAccessor().ConfigurationFilePath(executionContext)
	if !available || len(configurationFilePath) == 0 {
		return logger
	}
	return logger.With(logfields.ConfigurationFile(configurationFilePath))
}
