package backport

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scylladb/repobot/internal/githubapi"
)

const (
	backportBranchTemplateConstant   = "backport/%d/to-%s"
	pullRequestTitleTemplateConstant = "[Backport %s] %s"
	pullRequestBodyTemplateConstant  = "%s\n\n\n- (cherry picked from commit %s)\n\nParent PR: #%d"
)

var backportLabelPattern = regexp.MustCompile(`^backport/(\d+\.\d+)$`)

// BackportVersion returns the version requested by label, or false when label is not a backport label.
func BackportVersion(label string) (string, bool) {
	matches := backportLabelPattern.FindStringSubmatch(label)
	if matches == nil {
		return "", false
	}
	return matches[1], true
}

// EligibleVersions returns the versions a pull request should be ported to.
// Without the promoted label nothing is eligible.
func EligibleVersions(labels []string, promotedLabel string) []string {
	promoted := false
	var versions []string
	for _, label := range labels {
		if label == promotedLabel {
			promoted = true
			continue
		}
		if version, matched := BackportVersion(label); matched {
			versions = append(versions, version)
		}
	}
	if !promoted {
		return nil
	}
	return versions
}

// VersionBranchName returns the release branch for version.
func VersionBranchName(prefix string, version string) string {
	return prefix + version
}

// BackportBranchName returns the branch pushed for porting pull request number onto version.
func BackportBranchName(number int, version string) string {
	return fmt.Sprintf(backportBranchTemplateConstant, number, version)
}

// BuildPullRequestTitle renders the backport pull request title.
func BuildPullRequestTitle(version string, originalTitle string) string {
	return fmt.Sprintf(pullRequestTitleTemplateConstant, version, strings.TrimSpace(originalTitle))
}

// BuildPullRequestBody appends cherry-pick provenance to the original description.
func BuildPullRequestBody(original githubapi.PullRequest, commit string) string {
	return fmt.Sprintf(pullRequestBodyTemplateConstant, original.Body, commit, original.Number)
}
