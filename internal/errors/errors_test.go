package errors_test

import (
	"fmt"
	"testing"

	autherrors "github.com/jrsteele09/go-oidc-grants/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", autherrors.ErrNotFound, true},
		{"wrapped", autherrors.Wrapf(autherrors.ErrNotFound, "[Repo.Find] id %s", "x"), true},
		{"wrapped twice", fmt.Errorf("outer: %w", autherrors.Wrapf(autherrors.ErrNotFound, "inner")), true},
		{"other sentinel", autherrors.ErrAlreadyExists, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, autherrors.IsNotFound(tt.err))
		})
	}
}

func TestWrapfNil(t *testing.T) {
	require.NoError(t, autherrors.Wrapf(nil, "context"))
}
