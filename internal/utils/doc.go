// Package utils hosts the configuration loader, logger factory and path helpers
// shared by the repobot commands.
//
// ConfigurationLoader layers embedded defaults, an optional YAML file and
// REPOBOT_* environment variables through viper. LoggerFactory builds zap
// loggers in structured, console or logfmt encodings with optional rotated
// file output.
package utils
