// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"strconv"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
	"golang.org/x/sys/windows"
)

// SWbemDateTime dispatch primitives.  Declared as variables so tests can stand
// in for the automation object, following the proc variable pattern used for
// the lazy loaded DLL entry points.
var (
	// createSWbemDateTime instantiates the WbemScripting.SWbemDateTime
	// automation object and returns its IDispatch.
	createSWbemDateTime = func() (*ole.IDispatch, error) {
		unknown, err := oleutil.CreateObject("WbemScripting.SWbemDateTime")
		if err != nil {
			return nil, err
		}
		defer unknown.Release()
		return unknown.QueryInterface(ole.IID_IDispatch)
	}

	// putSWbemDateTimeValue loads the CIM formatted date-time string into the
	// automation object's Value property.
	putSWbemDateTimeValue = func(dateTime *ole.IDispatch, value string) error {
		_, err := oleutil.PutProperty(dateTime, "Value", value)
		return err
	}

	// getSWbemFileTime invokes GetFileTime on the automation object.  The
	// 64-bit FILETIME comes back as a decimal string.
	getSWbemFileTime = func(dateTime *ole.IDispatch, isLocal bool) (string, error) {
		result, err := oleutil.CallMethod(dateTime, "GetFileTime", isLocal)
		if err != nil {
			return "", err
		}
		defer variantClear(result)
		return result.ToString(), nil
	}

	releaseSWbemDateTime = func(dateTime *ole.IDispatch) {
		dateTime.Release()
	}
)

// cimDateTimeToFileTime converts a CIM formatted date-time string (for example
// "20220301123000.000000+000") into a split FILETIME.  isLocal selects local
// time, false selects UTC.  The conversion goes through the SWbemDateTime
// scripting object so the CIM timezone offset handling matches WMI exactly.
func cimDateTimeToFileTime(value string, isLocal bool) (windows.Filetime, error) {
	dateTime, err := createSWbemDateTime()
	if err != nil {
		return windows.Filetime{}, wmierrors.NewWmiError(wmierrors.ConversionFailed, "Failed to create SWbemDateTime object.")
	}
	defer releaseSWbemDateTime(dateTime)

	if err := putSWbemDateTimeValue(dateTime, value); err != nil {
		return windows.Filetime{}, wmierrors.NewWmiError(wmierrors.ConversionFailed, "Failed to set SWbemDateTime value.")
	}

	fileTimeString, err := getSWbemFileTime(dateTime, isLocal)
	if err != nil {
		return windows.Filetime{}, wmierrors.NewWmiError(wmierrors.ConversionFailed, "GetFileTime failed.")
	}

	fileTime, err := strconv.ParseInt(fileTimeString, 10, 64)
	if err != nil {
		return windows.Filetime{}, wmierrors.NewWmiError(wmierrors.ConversionFailed, "GetFileTime failed.")
	}
	return splitFileTime(fileTime), nil
}

// splitFileTime splits a 64-bit FILETIME quadword into its low and high
// doublewords.
func splitFileTime(quad int64) windows.Filetime {
	return windows.Filetime{
		LowDateTime:  uint32(quad & 0xffffffff),
		HighDateTime: uint32(quad >> 32),
	}
}
