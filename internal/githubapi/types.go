package githubapi

import "time"

// PullRequestState filters pull request listings.
type PullRequestState string

// Pull request states accepted by the pulls API.
const (
	PullRequestStateOpen   PullRequestState = "open"
	PullRequestStateClosed PullRequestState = "closed"
	PullRequestStateAll    PullRequestState = "all"
)

// IssueEventClosed is the issue event type recorded when a pull request is closed.
const IssueEventClosed = "closed"

// PullRequest is the subset of pull request fields repobot reads.
type PullRequest struct {
	Number         int
	Title          string
	Body           string
	HTMLURL        string
	State          string
	AuthorLogin    string
	HeadBranch     string
	BaseBranch     string
	Labels         []string
	Draft          bool
	Merged         bool
	MergeCommitSHA string
	MergedAt       time.Time
	ClosedAt       time.Time
}

// IsMerged reports whether the pull request was merged. The list endpoint omits the merged flag, so merged_at is consulted too.
func (pullRequest PullRequest) IsMerged() bool {
	return pullRequest.Merged || !pullRequest.MergedAt.IsZero()
}

// IsClosed reports whether the pull request carries a close timestamp.
func (pullRequest PullRequest) IsClosed() bool {
	return !pullRequest.ClosedAt.IsZero()
}

// IssueEvent is one entry of a pull request's issue event timeline.
type IssueEvent struct {
	Event     string
	CommitID  string
	CreatedAt time.Time
}

// PullRequestListOptions filters ListPullRequests. Head must be owner:branch when set.
type PullRequestListOptions struct {
	State PullRequestState
	Base  string
	Head  string
}

// NewPullRequestOptions describes a pull request to create.
type NewPullRequestOptions struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}
