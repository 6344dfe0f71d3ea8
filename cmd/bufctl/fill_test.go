package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFill_Text(t *testing.T) {
	resetFlags(t)

	out, err := captureOutput(t, runFill)
	require.NoError(t, err)
	assert.Contains(t, out, "filled 1,003 int32 elements")
	assert.Contains(t, out, "expected:   21")
	assert.Contains(t, out, "mismatches: 0")
}

func TestFill_JSONEveryType(t *testing.T) {
	for _, typ := range []string{"int32", "int64", "float32", "float64"} {
		t.Run(typ, func(t *testing.T) {
			resetFlags(t)
			jsonOut = true
			fillType = typ
			fillValue, fillMultiplier = 1.5, 4

			out, err := captureOutput(t, runFill)
			require.NoError(t, err)

			var res fillResult
			decodeJSON(t, out, &res)
			assert.Equal(t, typ, res.Type)
			assert.Equal(t, 1003, res.Length)
			assert.Zero(t, res.Mismatches)
			assert.Equal(t, "bufctl-heap", res.Allocator)
			assert.Positive(t, res.SIMDWidth)
			switch typ {
			case "int32", "int64":
				assert.Equal(t, "4", res.Expected, "1.5 truncates to 1")
			default:
				assert.Equal(t, "6", res.Expected)
			}
		})
	}
}

func TestFill_Arena(t *testing.T) {
	resetFlags(t)
	allocatorKind = "arena"
	jsonOut = true
	fillType = "int64"

	out, err := captureOutput(t, runFill)
	require.NoError(t, err)
	var res fillResult
	decodeJSON(t, out, &res)
	assert.Equal(t, uint64(1003*8), res.Bytes)
	assert.Zero(t, res.Mismatches)
}

func TestFill_Errors(t *testing.T) {
	resetFlags(t)
	fillType = "complex128"
	_, err := captureOutput(t, runFill)
	assert.ErrorContains(t, err, "unsupported --type")

	resetFlags(t)
	fillLength = 0
	_, err = captureOutput(t, runFill)
	assert.ErrorContains(t, err, "invalid argument")

	resetFlags(t)
	allocatorKind = "arena"
	arenaSize = "4KiB"
	fillLength = 2048
	_, err = captureOutput(t, runFill)
	assert.ErrorContains(t, err, "allocation failed")
}

func TestNewAllocator(t *testing.T) {
	resetFlags(t)
	for _, kind := range []string{"mmap", "heap", "arena"} {
		allocatorKind = kind
		a, err := newAllocator()
		require.NoError(t, err, kind)
		assert.Equal(t, "bufctl-"+kind, a.Name())
		closeAllocator(a)
	}

	allocatorKind = "tcmalloc"
	_, err := newAllocator()
	assert.ErrorContains(t, err, "unknown allocator")

	allocatorKind = "arena"
	arenaSize = "lots"
	_, err = newAllocator()
	assert.ErrorContains(t, err, "invalid --arena-size")
}
