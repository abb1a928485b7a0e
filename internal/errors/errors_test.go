package apperrors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorFormatting(t *testing.T) {
	err := New(TypeConfig, "invalid block size unit.")

	assert.Equal(t, "invalid block size unit.", err.Error())
	assert.Equal(t, TypeConfig, err.Type)
	assert.Equal(t, "invalid block size unit.", err.Message)
}

func TestAppError_Unwrap(t *testing.T) {
	baseErr := errors.New("input/output error")
	appErr := Wrap(baseErr, TypeIO, "error reading file 'a.img'")

	assert.Equal(t, "error reading file 'a.img': input/output error", appErr.Error())

	assert.True(t, errors.Is(appErr, baseErr))

	unwrapped := errors.Unwrap(appErr)
	assert.Equal(t, baseErr, unwrapped)
}

func TestAppError_IsType(t *testing.T) {
	err := Wrap(fs.ErrNotExist, TypeInput, "cannot access 'x'")
	assert.True(t, IsType(err, TypeInput))
	assert.False(t, IsType(err, TypeIO))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	stdErr := errors.New("standard error")
	assert.False(t, IsType(stdErr, TypeInput))

	wrapped := fmt.Errorf("wrapped: %w", err)
	assert.True(t, IsType(wrapped, TypeInput))
}
