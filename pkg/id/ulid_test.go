package id_test

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/id"
)

func TestNewULID(t *testing.T) {
	t.Parallel()

	u := id.NewULID()
	require.Len(t, u, 26)

	seen := make(map[string]bool)
	for range 1000 {
		v := id.NewULID()
		require.False(t, seen[v], "duplicate ULID %s", v)
		seen[v] = true
	}
}

func TestNewULID_SortsByTime(t *testing.T) {
	t.Parallel()

	first := id.NewULID()
	time.Sleep(2 * time.Millisecond)
	second := id.NewULID()

	ids := []string{second, first}
	sort.Strings(ids)
	require.Equal(t, []string{first, second}, ids)
}
