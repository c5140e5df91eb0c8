package backport

import "github.com/scylladb/repobot/internal/githubapi"

// ItemOutcome is the terminal state of one pull request and version pair.
type ItemOutcome string

// Item outcomes.
const (
	OutcomeOpened      ItemOutcome = "opened"
	OutcomeDraft       ItemOutcome = "draft"
	OutcomeSkipped     ItemOutcome = "skipped"
	OutcomeAlreadyOpen ItemOutcome = "already-open"
)

// ItemResult records what happened to one backport target.
type ItemResult struct {
	SourcePullRequest int
	Version           string
	Branch            string
	Commit            string
	Outcome           ItemOutcome
	Reason            string
	PullRequest       githubapi.PullRequest
}

// RunSummary collects the per-item results of a run.
type RunSummary struct {
	Items []ItemResult
}

// Count returns the number of items that finished with outcome.
func (summary RunSummary) Count(outcome ItemOutcome) int {
	count := 0
	for _, item := range summary.Items {
		if item.Outcome == outcome {
			count++
		}
	}
	return count
}

func (summary *RunSummary) record(item ItemResult) {
	summary.Items = append(summary.Items, item)
}
