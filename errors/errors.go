package errors

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ErrorCode int

const (
	InternalError ErrorCode = iota
	NotComparable
	ShardCursorFailure
	MalformedPagination
	UnsupportedAggregation
	MemoryLimitExceeded
	InvalidConfiguration
	UnknownColumn
	Cancelled
)

func NewInternalError(ref string) MergeError {
	return NewMergeErrorf(InternalError, "Internal error - reference %s please consult server logs for details", ref)
}

// NewNotComparableError is returned when a value used for ordering, grouping or aggregation does not support
// ordering. column is the label or index of the offending column.
func NewNotComparableError(column string, msg string) MergeError {
	return NewMergeErrorf(NotComparable, "Value in column %s is not comparable: %s", column, msg)
}

func NewShardCursorError(shardIndex int, cause error) MergeError {
	return NewMergeErrorf(ShardCursorFailure, "Shard %d failed: %v", shardIndex, cause)
}

func NewMalformedPaginationError(msg string) MergeError {
	return NewMergeErrorf(MalformedPagination, "Malformed pagination: %s", msg)
}

func NewUnsupportedAggregationError(msg string) MergeError {
	return NewMergeErrorf(UnsupportedAggregation, "Unsupported aggregation: %s", msg)
}

func NewMemoryLimitExceededError(maxRows int64) MergeError {
	return NewMergeErrorf(MemoryLimitExceeded, "Memory merge cannot hold more than %d rows", maxRows)
}

func NewInvalidConfigurationError(msg string) MergeError {
	return NewMergeErrorf(InvalidConfiguration, "Invalid configuration: %s", msg)
}

func NewUnknownColumnError(column string) MergeError {
	return NewMergeErrorf(UnknownColumn, "Unknown column: %s", column)
}

func NewCancelledError(cause error) MergeError {
	return NewMergeErrorf(Cancelled, "Merge cancelled: %v", cause)
}

func NewMergeErrorf(errorCode ErrorCode, msgFormat string, args ...interface{}) MergeError {
	msg := fmt.Sprintf(fmt.Sprintf("SMG%04d - %s", errorCode, msgFormat), args...)
	return MergeError{Code: errorCode, Msg: msg}
}

// MergeError is any kind of error that is surfaced to the client as a query execution error
type MergeError struct {
	Code ErrorCode
	Msg  string
}

func (m MergeError) Error() string {
	return m.Msg
}

// HasCode returns true if err, or any error it wraps, is a MergeError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var merr MergeError
	if !As(err, &merr) {
		return false
	}
	return merr.Code == code
}

// MaybeAddStack adds a stack trace unless err is already a MergeError, which is returned to the client as is.
func MaybeAddStack(err error) error {
	if _, ok := err.(MergeError); ok { //nolint:errorlint
		return err
	}
	return WithStack(err)
}

// LogInternalError logs err against a random reference and returns an error carrying only the reference, so
// implementation details are not leaked to clients.
func LogInternalError(err error) MergeError {
	var errRef string
	id, err2 := uuid.NewRandom()
	if err2 != nil {
		log.Errorf("failed to generate uuid %v", err2)
	} else {
		errRef = id.String()
	}
	log.Errorf("internal error occurred with reference %s\n%+v", errRef, err)
	return NewInternalError(errRef)
}
