package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/qrstock/qrstock/testing"
)

func TestCodeGeneratorFormat(t *testing.T) {
	gen := NewCodeGenerator("QR")
	gen.now = func() time.Time {
		return time.Date(2025, 9, 1, 14, 30, 0, 0, time.UTC)
	}
	gen.intN = func(int) int { return 42 }

	require.Equal(t, "QR-20250901-000042", gen.Next())
}

func TestCodeGeneratorCustomPrefix(t *testing.T) {
	gen := NewCodeGenerator("INV")
	gen.now = func() time.Time {
		return time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
	}
	gen.intN = func(int) int { return 999999 }

	require.Equal(t, "INV-20251231-999999", gen.Next())
}

func TestCodeGeneratorDefaultsPrefix(t *testing.T) {
	gen := NewCodeGenerator("")
	require.Regexp(t, `^QR-\d{8}-\d{6}$`, gen.Next())
}
