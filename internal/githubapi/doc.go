// Package githubapi wraps the GitHub REST API calls used by repobot.
//
// RESTClient lists pull requests and issue events across all pages, looks up
// open pull requests by head branch, creates pull requests and adds
// assignees. Failures are reported as OperationError values that keep the
// HTTP status and rate-limit state of the underlying go-github error.
// DryRunClient forwards reads to a wrapped Client and simulates writes.
package githubapi
