package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

var errSample = New(http.StatusConflict, "SAMPLE_CONFLICT", "sample conflict")

func TestCopiesStillMatchSentinel(t *testing.T) {
	err := errSample.WithMessage("other message").WithDetails(map[string]string{"field": "title"})
	require.ErrorIs(t, err, errSample)
	require.Equal(t, "other message", err.Message)
	require.Equal(t, "sample conflict", errSample.Message)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", errSample.Wrap(cause))

	require.ErrorIs(t, err, errSample)
	require.ErrorIs(t, err, cause)

	appErr, ok := From(err)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, appErr.Status)
}

func TestFromFallsBackToInternal(t *testing.T) {
	appErr, ok := From(errors.New("database down"))
	require.False(t, ok)
	require.Equal(t, ErrInternal, appErr)
}

func TestDifferentCodesDoNotMatch(t *testing.T) {
	require.False(t, errors.Is(errSample, ErrForbidden))
}
