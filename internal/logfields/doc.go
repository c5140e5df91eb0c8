// Package logfields holds the zap field constructors shared by the sync and
// backport workflows so that log keys stay consistent across packages.
package logfields
