// Package errors defines the error taxonomy shared by every layer of the
// retrieval engine and maps it onto process exit codes.
package errors

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrRetrieval      = errors.New("retrieval error")
	ErrMalformedQuery = errors.New("malformed query")
	ErrConfiguration  = errors.New("configuration error")
	ErrTimeout        = errors.New("operation timed out")
	ErrQueriesFailed  = errors.New("one or more queries failed")
)

// Exit codes returned by the boolsearch binary.
const (
	ExitOK            = 0
	ExitConfiguration = 1
	ExitQueryFailures = 2
	ExitInterrupted   = 130
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Retrieval wraps a store failure so that it classifies as ErrRetrieval while
// keeping the underlying cause reachable through errors.Is / errors.As.
func Retrieval(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRetrieval) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrRetrieval, op, err)
}

func IsRetrieval(err error) bool {
	return errors.Is(err, ErrRetrieval)
}

func IsMalformedQuery(err error) bool {
	return errors.Is(err, ErrMalformedQuery)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, ErrQueriesFailed):
		return ExitQueryFailures
	default:
		return ExitConfiguration
	}
}
