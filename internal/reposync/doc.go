// Package reposync brings a branch of a source repository into a branch of a
// target repository through a pull request opened on the target.
package reposync
