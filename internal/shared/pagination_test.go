package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	f := ListFilters{}.Normalize()
	require.Equal(t, 1, f.Page)
	require.Equal(t, 20, f.Limit)

	f = ListFilters{Page: -3, Limit: 1000}.Normalize()
	require.Equal(t, 1, f.Page)
	require.Equal(t, 200, f.Limit)

	f = ListFilters{Page: 4, Limit: 50}.Normalize()
	require.Equal(t, 4, f.Page)
	require.Equal(t, 50, f.Limit)
}

func TestOffset(t *testing.T) {
	require.Equal(t, 0, ListFilters{Page: 1, Limit: 20}.Offset())
	require.Equal(t, 60, ListFilters{Page: 4, Limit: 20}.Offset())
	require.Equal(t, 0, ListFilters{}.Offset())
}
