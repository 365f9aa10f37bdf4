// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"testing"

	ole "github.com/go-ole/go-ole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodArgsOrdering(t *testing.T) {
	stubs, restore := installVariantStubs()
	defer restore()

	var args WmiMethodArgs
	assert.NoError(t, args.PutUint32("n1", 5))
	assert.NoError(t, args.PutString("n2", "hello"))
	assert.NoError(t, args.PutUint32("n1", 7)) // repeated name is kept

	arguments := args.GetArguments()
	require.Len(t, arguments, 3)
	assert.Equal(t, "n1", arguments[0].Name)
	assert.Equal(t, ole.VT_UI4, arguments[0].Value.VT)
	assert.Equal(t, int64(5), arguments[0].Value.Val)
	assert.Equal(t, "n2", arguments[1].Name)
	assert.Equal(t, ole.VT_BSTR, arguments[1].Value.VT)
	assert.Equal(t, "hello", variantToString(&arguments[1].Value))
	assert.Equal(t, "n1", arguments[2].Name)
	assert.Equal(t, int64(7), arguments[2].Value.Val)
	assert.Equal(t, 1, stubs.allocs)

	args.Release()
}

func TestMethodArgsPutStringOutOfMemory(t *testing.T) {
	stubs, restore := installVariantStubs()
	defer restore()

	var args WmiMethodArgs
	assert.NoError(t, args.PutUint32("n1", 5))

	stubs.failAlloc = true
	assert.Error(t, args.PutString("n2", "hello"))

	// A failed put must leave the collection unmodified
	arguments := args.GetArguments()
	require.Len(t, arguments, 1)
	assert.Equal(t, "n1", arguments[0].Name)

	args.Release()
}

func TestMethodArgsRelease(t *testing.T) {
	stubs, restore := installVariantStubs()
	defer restore()

	var args WmiMethodArgs
	assert.NoError(t, args.PutString("s1", "one"))
	assert.NoError(t, args.PutString("s2", "two"))
	assert.NoError(t, args.PutUint32("n1", 5))

	// Each owned BSTR is freed exactly once, the second release is a no-op
	args.Release()
	assert.Equal(t, 2, stubs.frees)
	assert.Empty(t, args.GetArguments())
	args.Release()
	assert.Equal(t, 2, stubs.frees)
}

func TestMethodArgsMove(t *testing.T) {
	stubs, restore := installVariantStubs()
	defer restore()

	var args WmiMethodArgs
	assert.NoError(t, args.PutString("s1", "one"))
	assert.NoError(t, args.PutUint32("n1", 5))

	moved := args.Move()
	assert.Empty(t, args.GetArguments())
	require.Len(t, moved.GetArguments(), 2)

	// Ownership moved with the payloads; releasing the source frees nothing
	args.Release()
	assert.Zero(t, stubs.frees)
	moved.Release()
	assert.Equal(t, 1, stubs.frees)
}
