package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{ErrDataFileNotFound, ErrSetup},
		{ErrNoIndexFiles, ErrSetup},
		{ErrFileNotFound, ErrNotFound},
		{ErrIndexNotFound, ErrNotFound},
		{ErrSectorFileMismatch, ErrCorrupt},
		{ErrTruncated, ErrCorrupt},
		{ErrNoChunks, ErrCorrupt},
		{ErrUnsupportedOperation, ErrUnsupported},
		{ErrCapacityTooLow, ErrContractViolation},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			require.ErrorIs(t, tt.err, tt.kind)

			wrapped := fmt.Errorf("read file 7: %w", tt.err)
			require.ErrorIs(t, wrapped, tt.err)
			require.ErrorIs(t, wrapped, tt.kind)
		})
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	require.False(t, errors.Is(ErrFileNotFound, ErrCorrupt))
	require.False(t, errors.Is(ErrCapacityTooLow, ErrUnsupported))
}
