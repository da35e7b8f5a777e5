package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageWindow(t *testing.T) {
	page, size, offset := PageWindow(0, 0, 50)
	require.Equal(t, 1, page)
	require.Equal(t, 20, size)
	require.Equal(t, 0, offset)

	page, size, offset = PageWindow(3, 10, 50)
	require.Equal(t, 3, page)
	require.Equal(t, 10, size)
	require.Equal(t, 20, offset)

	_, size, _ = PageWindow(1, 500, 50)
	require.Equal(t, 50, size, "requested size is capped")

	_, size, _ = PageWindow(1, 500, 0)
	require.Equal(t, 500, size, "no cap when maxPerPage is zero")
}
