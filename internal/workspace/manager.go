// Package workspace allocates throwaway directories for git working copies.
package workspace

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultPatternConstant          = "repobot-*"
	createFailureTemplateConstant   = "create temporary working directory: %w"
	removeFailureMessageConstant    = "Failed to remove temporary working directory"
	removedDirectoryMessageConstant = "Removed temporary working directory"
	logFieldDirectoryConstant       = "working_directory"
)

// Manager creates and removes temporary directories.
type Manager struct {
	fileSystem      FileSystem
	logger          *zap.Logger
	parentDirectory string
}

// NewManager constructs a manager. parentDirectory may be empty to use the system temporary directory.
func NewManager(fileSystem FileSystem, logger *zap.Logger, parentDirectory string) *Manager {
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{fileSystem: fileSystem, logger: logger, parentDirectory: strings.TrimSpace(parentDirectory)}
}

// Directory is a temporary directory owned by the caller until Release is called.
type Directory struct {
	Path    string
	manager *Manager
}

// Create allocates a fresh directory whose name starts with prefix.
func (manager *Manager) Create(prefix string) (Directory, error) {
	pattern := defaultPatternConstant
	if trimmedPrefix := strings.TrimSpace(prefix); len(trimmedPrefix) > 0 {
		pattern = sanitizePrefix(trimmedPrefix) + "-*"
	}
	createdPath, createError := manager.fileSystem.MkdirTemp(manager.parentDirectory, pattern)
	if createError != nil {
		return Directory{}, fmt.Errorf(createFailureTemplateConstant, createError)
	}
	return Directory{Path: createdPath, manager: manager}, nil
}

// Release removes the directory. Failures are logged, not returned.
func (directory Directory) Release() {
	if directory.manager == nil || len(directory.Path) == 0 {
		return
	}
	if removeError := directory.manager.fileSystem.RemoveAll(directory.Path); removeError != nil {
		directory.manager.logger.Warn(removeFailureMessageConstant, zap.String(logFieldDirectoryConstant, directory.Path), zap.Error(removeError))
		return
	}
	directory.manager.logger.Debug(removedDirectoryMessageConstant, zap.String(logFieldDirectoryConstant, directory.Path))
}

// sanitizePrefix keeps branch-like prefixes such as backport/42/to-5.4 usable as a single path element.
func sanitizePrefix(prefix string) string {
	return strings.NewReplacer("/", "-", "\\", "-", "*", "-", " ", "-").Replace(prefix)
}
