package activity

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/qrstock/qrstock/testing"
)

func TestClampLimit(t *testing.T) {
	require.Equal(t, defaultListLimit, clampLimit(0))
	require.Equal(t, defaultListLimit, clampLimit(-3))
	require.Equal(t, 10, clampLimit(10))
	require.Equal(t, maxListLimit, clampLimit(maxListLimit))
	require.Equal(t, maxListLimit, clampLimit(maxListLimit+1))
}

func TestOptionalID(t *testing.T) {
	require.Nil(t, OptionalID(0))

	id := OptionalID(42)
	require.NotNil(t, id)
	require.Equal(t, int64(42), *id)
}
