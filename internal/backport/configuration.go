package backport

import "strings"

const (
	defaultRepositoryConstant          = "yaronkaikov/backport"
	defaultBaseBranchConstant          = "master"
	defaultPromotedLabelConstant       = "promoted-to-master"
	defaultVersionBranchPrefixConstant = "branch-"
)

// CommandConfiguration captures persisted configuration for the backport command.
type CommandConfiguration struct {
	Repository          string `mapstructure:"repository"`
	BaseBranch          string `mapstructure:"base_branch"`
	PromotedLabel       string `mapstructure:"promoted_label"`
	VersionBranchPrefix string `mapstructure:"version_branch_prefix"`
	DryRun              bool   `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration returns baseline configuration values for the backport command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Repository:          defaultRepositoryConstant,
		BaseBranch:          defaultBaseBranchConstant,
		PromotedLabel:       defaultPromotedLabelConstant,
		VersionBranchPrefix: defaultVersionBranchPrefixConstant,
	}
}

// Sanitize trims configured values and restores defaults for empty ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	sanitized.Repository = valueOrDefault(configuration.Repository, defaults.Repository)
	sanitized.BaseBranch = valueOrDefault(configuration.BaseBranch, defaults.BaseBranch)
	sanitized.PromotedLabel = valueOrDefault(configuration.PromotedLabel, defaults.PromotedLabel)
	sanitized.VersionBranchPrefix = valueOrDefault(configuration.VersionBranchPrefix, defaults.VersionBranchPrefix)
	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
