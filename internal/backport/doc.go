// Package backport ports merged pull requests onto release branches.
//
// A closed pull request is eligible when it carries the promoted label and at
// least one backport/<major>.<minor> label. For every such version the commit
// that landed the pull request is cherry-picked onto branch-<version> in a
// fresh working copy, pushed as backport/<number>/to-<version>, and proposed as
// a pull request. Cherry-pick conflicts are committed as-is and the pull
// request is opened as a draft.
package backport
