package syncerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsWrapAndUnwrap(t *testing.T) {
	cases := []error{
		ErrTransport, ErrConflictRejection, ErrDecryption,
		ErrJournalIO, ErrIntegrityViolation, ErrCancelled,
	}
	for _, sentinel := range cases {
		wrapped := fmt.Errorf("layer: %w", sentinel)
		assert.ErrorIs(t, wrapped, sentinel)
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrTransport, ErrJournalIO), "distinct sentinels should not match each other")
}
