package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageWrapsBothChains(t *testing.T) {
	t.Parallel()

	root := errors.New("disk full")
	err := Storage("save cv", root)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "save cv: disk full", err.Error())
	assert.NoError(t, Storage("noop", nil))
}

func TestKind(t *testing.T) {
	t.Parallel()

	cases := map[error]string{
		Validation("title required"):           "validation",
		fmt.Errorf("wrap: %w", ErrWeakPassword): "weak_password",
		ErrDuplicateEmail:                      "duplicate_email",
		ErrAuthFailure:                         "auth_failure",
		NotFound("cv", 3):                      "not_found",
		ErrIndexOutOfRange:                     "index_out_of_range",
		ErrEntryNotFound:                       "entry_not_found",
		ErrNoSession:                           "no_session",
		Storage("x", errors.New("y")):          "storage",
		errors.New("boom"):                     "internal",
	}
	for err, want := range cases {
		assert.Equal(t, want, Kind(err), err.Error())
	}
}
