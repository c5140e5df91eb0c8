package reposync

import (
	"fmt"
	"strings"

	"github.com/scylladb/repobot/internal/githubapi"
	"github.com/scylladb/repobot/internal/gitrepo"
)

const (
	syncBranchNameTemplateConstant    = "sync-branch-%s"
	pullRequestTitleTemplateConstant  = "Sync repositories: from %s into %s"
	pullRequestHeaderTemplateConstant = "Applying changes from `%s`(branch: `%s`) into `%s`(branch: `%s`)."
	pullRequestCommitsHeadingConstant = "### List of commits:"
	commitListItemTemplateConstant    = "[%s](%s) : %s"
	pullRequestBodyLineSeparator      = "\n"
	pullRequestBodySectionSeparator   = "\n\n"
)

// SyncBranchName derives the branch name used for the sync pull request from the source tip short hash.
func SyncBranchName(shortHash string) string {
	return fmt.Sprintf(syncBranchNameTemplateConstant, strings.TrimSpace(shortHash))
}

// BuildPullRequestTitle renders the sync pull request title.
func BuildPullRequestTitle(source githubapi.RepositoryIdentifier, target githubapi.RepositoryIdentifier) string {
	return fmt.Sprintf(pullRequestTitleTemplateConstant, source.String(), target.String())
}

// BuildPullRequestBody renders the sync pull request description with one link per commit.
// Links point at the target repository, where the sync branch is pushed.
func BuildPullRequestBody(options SyncOptions, commits []gitrepo.CommitSummary) string {
	header := fmt.Sprintf(
		pullRequestHeaderTemplateConstant,
		options.SourceRepository.String(),
		options.SourceBranch,
		options.TargetRepository.String(),
		options.TargetBranch,
	)

	commitLines := make([]string, 0, len(commits))
	for _, commit := range commits {
		commitLines = append(commitLines, fmt.Sprintf(
			commitListItemTemplateConstant,
			commit.ShortHash,
			options.TargetRepository.CommitURL(commit.ShortHash),
			commit.Subject,
		))
	}

	return header + pullRequestBodySectionSeparator +
		pullRequestCommitsHeadingConstant + pullRequestBodyLineSeparator +
		strings.Join(commitLines, pullRequestBodyLineSeparator)
}
