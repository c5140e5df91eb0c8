// Package gitrepo drives git working copies through the shell executor.
//
// WorkingCopy wraps one temporary checkout and exposes the operations the
// sync and backport workflows need: clone, fetch, branch management, merge,
// cherry-pick, staging, committing, force pushing and history listing.
// Conflicting merges and cherry-picks surface as ConflictError so callers can
// hand the working copy to a conflict resolution strategy. The package also
// parses and formats GitHub remote URLs, including token-authenticated HTTPS
// remotes.
package gitrepo
