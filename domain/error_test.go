package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetailedError_IsSurvivesBuilders(t *testing.T) {
	err := ErrRoleNotFound.WithReason("role r-1 does not exist").WithDetail("role_id", "r-1")

	assert.True(t, errors.Is(err, ErrRoleNotFound))
	assert.False(t, errors.Is(err, ErrDuplicateRole))

	wrapped := fmt.Errorf("delete: %w", err)
	assert.True(t, errors.Is(wrapped, ErrRoleNotFound))
}

func TestDetailedError_WithDetailDoesNotMutateSentinel(t *testing.T) {
	_ = ErrInputValidation.WithDetail("name", "required")
	assert.Nil(t, ErrInputValidation.DetailsField)
}

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")

	assert.Equal(t, KindDatabase, KindOf(ErrDatabase.WithWrap(cause)))
	assert.Equal(t, KindExpiredToken, KindOf(ErrTokenExpired))
	assert.Equal(t, KindInvalidToken, KindOf(fmt.Errorf("verify: %w", ErrTokenSignatureInvalid)))
	assert.Equal(t, KindDataValidation, KindOf(ErrDuplicateRole))
	assert.Equal(t, KindInputValidation, KindOf(ErrInputValidation))
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestAsDetailedError(t *testing.T) {
	de := AsDetailedError(ErrModuleNotFound)
	assert.Equal(t, "MODULE_NOT_FOUND", de.ID())

	plain := errors.New("boom")
	de = AsDetailedError(plain)
	assert.Equal(t, 500, de.StatusCode())
	assert.ErrorIs(t, de, plain)
}
