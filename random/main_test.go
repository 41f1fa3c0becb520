package random_test

import (
	"bytes"
	"testing"

	"github.com/repolens/cli/random"
	"github.com/stretchr/testify/require"
)

func TestStateIsURLSafeAndUnique(t *testing.T) {
	r := random.New()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := r.State()
		require.NoError(t, err)
		require.Len(t, s, 32)
		require.NotContains(t, s, "+")
		require.NotContains(t, s, "/")
		require.False(t, seen[s])
		seen[s] = true
	}
}

func TestStateFailsWhenSourceIsShort(t *testing.T) {
	r := random.NewFromReader(bytes.NewReader([]byte{1, 2, 3}))
	_, err := r.State()
	require.Error(t, err)
}
