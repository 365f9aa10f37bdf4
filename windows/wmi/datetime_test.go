// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"errors"
	"testing"

	"github.com/hpe-storage/common-wmi-libs/wmierrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestSplitFileTime(t *testing.T) {
	tests := []struct {
		name string
		quad int64
		want windows.Filetime
	}{
		{"zero", 0, windows.Filetime{}},
		{"lowOnly", 0x00000000FFFFFFFF, windows.Filetime{LowDateTime: 0xFFFFFFFF}},
		{"highOnly", 0x0000000100000000, windows.Filetime{HighDateTime: 1}},
		{"mixed", 0x01D82D5F12345678, windows.Filetime{LowDateTime: 0x12345678, HighDateTime: 0x01D82D5F}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitFileTime(tc.quad))
		})
	}
}

func TestCimDateTimeToFileTime(t *testing.T) {
	stubs, restore := installDateTimeStubs()
	defer restore()
	stubs.fileTime = "8589934597" // 0x0000000200000005

	// UTC rendering
	fileTime, err := cimDateTimeToFileTime("20220301123000.000000+000", false)
	require.NoError(t, err)
	assert.Equal(t, "20220301123000.000000+000", stubs.putValue)
	assert.False(t, stubs.isLocal)
	assert.Equal(t, windows.Filetime{LowDateTime: 5, HighDateTime: 2}, fileTime)

	// Local rendering routes the flag through to GetFileTime
	fileTime, err = cimDateTimeToFileTime("20220301123000.000000+000", true)
	require.NoError(t, err)
	assert.True(t, stubs.isLocal)
	assert.Equal(t, windows.Filetime{LowDateTime: 5, HighDateTime: 2}, fileTime)

	// The automation object was released on every conversion
	assert.Equal(t, 2, stubs.releases)
}

func TestCimDateTimeToFileTimeFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(stubs *dateTimeStubs)
		wantText string
	}{
		{
			name:     "create",
			mutate:   func(stubs *dateTimeStubs) { stubs.createErr = errors.New("class not registered") },
			wantText: "Failed to create SWbemDateTime object.",
		},
		{
			name:     "putValue",
			mutate:   func(stubs *dateTimeStubs) { stubs.putErr = errors.New("malformed datetime") },
			wantText: "Failed to set SWbemDateTime value.",
		},
		{
			name:     "getFileTime",
			mutate:   func(stubs *dateTimeStubs) { stubs.getErr = errors.New("out of range") },
			wantText: "GetFileTime failed.",
		},
		{
			name:     "nonNumericFileTime",
			mutate:   func(stubs *dateTimeStubs) { stubs.fileTime = "not-a-quad" },
			wantText: "GetFileTime failed.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stubs, restore := installDateTimeStubs()
			defer restore()
			tc.mutate(stubs)

			_, err := cimDateTimeToFileTime("20220301123000.000000+000", false)
			require.Error(t, err)
			wmiErr, ok := err.(*wmierrors.WmiError)
			require.True(t, ok)
			assert.Equal(t, wmierrors.ConversionFailed, wmiErr.Code)
			assert.Equal(t, tc.wantText, wmiErr.Text)
		})
	}
}
