package githubapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
)

const (
	requiredValueMessageConstant       = "value required"
	invalidInputTemplateConstant       = "invalid %s %q: %s"
	operationErrorTemplateConstant     = "github %s on %s failed: %v"
	operationStatusTemplateConstant    = "github %s on %s failed with status %d: %v"
	tokenNotConfiguredMessageConstant  = "github token not configured"
	clientNotConfiguredMessageConstant = "github client not configured"
)

var (
	// ErrTokenNotConfigured indicates NewClient was called without a token.
	ErrTokenNotConfigured = errors.New(tokenNotConfiguredMessageConstant)
	// ErrClientNotConfigured indicates a wrapper was constructed without a client to delegate to.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
)

// Operation names the API call that failed.
type Operation string

// API operations performed by the client.
const (
	OperationListPullRequests  Operation = "list pull requests"
	OperationListIssueEvents   Operation = "list issue events"
	OperationCreatePullRequest Operation = "create pull request"
	OperationAddAssignees      Operation = "add assignees"
)

// InvalidInputError reports a request rejected before it reached GitHub.
type InvalidInputError struct {
	Field   string
	Value   string
	Message string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputTemplateConstant, inputError.Field, inputError.Value, inputError.Message)
}

// OperationError reports a failed API call.
type OperationError struct {
	Operation  Operation
	Repository RepositoryIdentifier
	StatusCode int
	// RateLimitReset is set when GitHub rejected the call because of rate limiting.
	RateLimitReset time.Time
	Cause          error
}

// Error describes the failed call.
func (operationError OperationError) Error() string {
	if operationError.StatusCode != 0 {
		return fmt.Sprintf(operationStatusTemplateConstant, operationError.Operation, operationError.Repository, operationError.StatusCode, operationError.Cause)
	}
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Repository, operationError.Cause)
}

// Unwrap exposes the go-github error.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// RateLimited reports whether the failure was caused by GitHub rate limiting.
func (operationError OperationError) RateLimited() bool {
	return !operationError.RateLimitReset.IsZero()
}

func newOperationError(operation Operation, repository RepositoryIdentifier, cause error) OperationError {
	operationError := OperationError{Operation: operation, Repository: repository, Cause: cause}

	var rateLimitError *github.RateLimitError
	var abuseError *github.AbuseRateLimitError
	var responseError *github.ErrorResponse
	switch {
	case errors.As(cause, &rateLimitError):
		operationError.RateLimitReset = rateLimitError.Rate.Reset.Time
		if rateLimitError.Response != nil {
			operationError.StatusCode = rateLimitError.Response.StatusCode
		}
	case errors.As(cause, &abuseError):
		operationError.RateLimitReset = time.Now().Add(abuseError.GetRetryAfter())
		if abuseError.Response != nil {
			operationError.StatusCode = abuseError.Response.StatusCode
		}
	case errors.As(cause, &responseError):
		if responseError.Response != nil {
			operationError.StatusCode = responseError.Response.StatusCode
		}
	}
	if operationError.StatusCode == 0 && operationError.RateLimited() {
		operationError.StatusCode = http.StatusForbidden
	}
	return operationError
}
