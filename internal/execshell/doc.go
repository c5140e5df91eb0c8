// Package execshell provides structured helpers for invoking git.
//
// ShellExecutor wraps a CommandRunner with lifecycle notifications, converts
// non-zero exit codes into CommandFailedError values that carry the captured
// standard error, and keeps credentials embedded in remote URLs out of every
// log line. OSCommandRunner is the os/exec backed runner used in production.
package execshell
