package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNew_PrefixAndUnique(t *testing.T) {
	a := New("sub")
	b := New("sub")
	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "sub_"))

	_, err := uuid.Parse(strings.TrimPrefix(a, "sub_"))
	require.NoError(t, err)
}
