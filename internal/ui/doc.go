// Package ui renders git command lifecycle events as short human-readable log lines
// for the console log format.
package ui
