package reposync

import "strings"

// CommandConfiguration captures persisted configuration for the sync command.
type CommandConfiguration struct {
	TargetRepository string `mapstructure:"target_repo"`
	TargetBranch     string `mapstructure:"target_branch"`
	SourceRepository string `mapstructure:"source_repo"`
	SourceBranch     string `mapstructure:"source_branch"`
	DryRun           bool   `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration returns baseline configuration values for the sync command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// Sanitize trims configured values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.TargetRepository = strings.TrimSpace(configuration.TargetRepository)
	sanitized.TargetBranch = strings.TrimSpace(configuration.TargetBranch)
	sanitized.SourceRepository = strings.TrimSpace(configuration.SourceRepository)
	sanitized.SourceBranch = strings.TrimSpace(configuration.SourceBranch)
	return sanitized
}
