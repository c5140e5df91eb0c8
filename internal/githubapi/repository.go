package githubapi

import (
	"fmt"
	"strings"

	"github.com/scylladb/repobot/internal/gitrepo"
)

const (
	repositorySeparatorConstant       = "/"
	headReferenceTemplateConstant     = "%s:%s"
	repositoryFieldNameConstant       = "repository"
	repositoryFormatMessageConstant   = "expected owner/name or a GitHub remote URL"
	commitURLTemplateConstant         = "https://%s/%s/%s/commit/%s"
	defaultWebHostConstant            = gitrepo.DefaultHostConstant
	repositoryIdentifierTemplateConst = "%s/%s"
)

// RepositoryIdentifier names a GitHub repository.
type RepositoryIdentifier struct {
	Owner string
	Name  string
}

// ParseRepositoryIdentifier accepts owner/name or any remote URL understood by gitrepo.ParseRemoteURL.
func ParseRepositoryIdentifier(value string) (RepositoryIdentifier, error) {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return RepositoryIdentifier{}, InvalidInputError{Field: repositoryFieldNameConstant, Value: value, Message: requiredValueMessageConstant}
	}

	if strings.Contains(trimmedValue, "://") || strings.HasPrefix(trimmedValue, "git@") {
		remoteURL, parseError := gitrepo.ParseRemoteURL(trimmedValue)
		if parseError != nil {
			return RepositoryIdentifier{}, InvalidInputError{Field: repositoryFieldNameConstant, Value: value, Message: parseError.Error()}
		}
		return RepositoryIdentifier{Owner: remoteURL.Owner, Name: remoteURL.Repository}, nil
	}

	segments := strings.Split(strings.TrimSuffix(trimmedValue, ".git"), repositorySeparatorConstant)
	if len(segments) != 2 || len(strings.TrimSpace(segments[0])) == 0 || len(strings.TrimSpace(segments[1])) == 0 {
		return RepositoryIdentifier{}, InvalidInputError{Field: repositoryFieldNameConstant, Value: value, Message: repositoryFormatMessageConstant}
	}
	return RepositoryIdentifier{Owner: strings.TrimSpace(segments[0]), Name: strings.TrimSpace(segments[1])}, nil
}

// String returns owner/name.
func (identifier RepositoryIdentifier) String() string {
	return fmt.Sprintf(repositoryIdentifierTemplateConst, identifier.Owner, identifier.Name)
}

// HeadReference qualifies branch with the repository owner, as the pulls API expects for head filters.
func (identifier RepositoryIdentifier) HeadReference(branch string) string {
	return fmt.Sprintf(headReferenceTemplateConstant, identifier.Owner, branch)
}

// CommitURL links to commit in the repository web UI.
func (identifier RepositoryIdentifier) CommitURL(commit string) string {
	return fmt.Sprintf(commitURLTemplateConstant, defaultWebHostConstant, identifier.Owner, identifier.Name, commit)
}

// RemoteURL returns the token-authenticated HTTPS clone URL of the repository.
func (identifier RepositoryIdentifier) RemoteURL(token string) (string, error) {
	return gitrepo.FormatRemoteURL(gitrepo.NewGitHubRemoteURL(identifier.Owner, identifier.Name, token))
}
