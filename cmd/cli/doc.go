// Package cli constructs the repobot command-line interface. It wires the
// Cobra command hierarchy to the configuration loader and the zap logger
// factory, and registers the sync and backport commands.
package cli
