package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"ContentCurator/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // at least one operation was refused (invalid transition, not found)
	ExitCommandError = 2 // bad arguments, unusable config or store
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error; plain errors map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exitCodeFor maps domain errors onto exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		return ExitCommandError
	default:
		return ExitFailure
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid item id %q", arg))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func itemLine(item domain.ContentItem) string {
	return fmt.Sprintf("#%d [%s] p%d %.2f %s (%s) %s",
		item.ID,
		item.ComplianceStatus,
		item.Priority,
		item.EngagementMetrics.BusinessRelevanceScore,
		item.Title,
		item.Source,
		item.URL)
}
