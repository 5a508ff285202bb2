package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeErrorFormat(t *testing.T) {
	err := NewMalformedPaginationError("parameter index 3 out of range")
	require.Equal(t, MalformedPagination, err.Code)
	require.Equal(t, "SMG0003 - Malformed pagination: parameter index 3 out of range", err.Error())

	err = NewNotComparableError("price", "map[string]int")
	require.Equal(t, "SMG0001 - Value in column price is not comparable: map[string]int", err.Error())
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := Wrap(NewShardCursorError(2, New("connection reset")), "merging")
	require.True(t, HasCode(err, ShardCursorFailure))
	require.False(t, HasCode(err, NotComparable))
	require.False(t, HasCode(New("plain"), InternalError))
	require.False(t, HasCode(nil, InternalError))
}

func TestMaybeAddStack(t *testing.T) {
	merr := NewUnknownColumnError("foo")
	require.Equal(t, merr, MaybeAddStack(merr))

	plain := New("boom")
	wrapped := MaybeAddStack(plain)
	require.NotEqual(t, plain, wrapped)
	require.Equal(t, plain, Cause(wrapped))
	require.Contains(t, fmt.Sprintf("%+v", wrapped), "errors_test.go")
}

func TestLogInternalErrorHidesCause(t *testing.T) {
	merr := LogInternalError(New("secret detail"))
	require.Equal(t, InternalError, merr.Code)
	require.NotContains(t, merr.Error(), "secret detail")
}
