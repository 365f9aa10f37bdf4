// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	ole "github.com/go-ole/go-ole"
	log "github.com/hpe-storage/common-wmi-libs/logger"
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
	"golang.org/x/sys/windows"
)

// WmiResultItem wraps exactly one enumerated WMI class object.  It does not
// retain any property state; each getter fetches the named property into a
// fresh VARIANT, verifies the tag matches the requested native type, converts,
// and clears the VARIANT before returning.  On failure the output parameter is
// left untouched, except for the string getter which resets its output to
// empty first (long-standing behavior callers depend on, so it is kept).
type WmiResultItem struct {
	object classObject
}

func newWmiResultItem(object classObject) *WmiResultItem {
	return &WmiResultItem{object: object}
}

// Release frees the wrapped class object.  The item must not be used after
// Release returns.
func (item *WmiResultItem) Release() {
	if item.object != nil {
		item.object.Release()
		item.object = nil
	}
}

// PrintType logs the name, variant type and value of the given property.  This
// is a debugging aid only.
func (item *WmiResultItem) PrintType(name string) {
	value, err := item.object.GetProperty(name)
	if err != nil {
		log.Errorf("Failed to retrieve property, name=%v, err=%v", name, err)
		return
	}
	log.Infof("Name=%v, Type=%v, Value=%v", name, value.VT, value.Val)
	variantClear(value)
}

// GetBool retrieves the named VT_BOOL property
func (item *WmiResultItem) GetBool(name string, ret *bool) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_BOOL {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = value.Val != 0
	variantClear(value)
	return nil
}

// GetUChar retrieves the named VT_UI1 property
func (item *WmiResultItem) GetUChar(name string, ret *uint8) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_UI1 {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = uint8(value.Val)
	variantClear(value)
	return nil
}

// GetUnsignedShort retrieves the named VT_UI2 property
func (item *WmiResultItem) GetUnsignedShort(name string, ret *uint16) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_UI2 {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = uint16(value.Val)
	variantClear(value)
	return nil
}

// GetUnsignedInt32 retrieves the named VT_UINT property
func (item *WmiResultItem) GetUnsignedInt32(name string, ret *uint32) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_UINT {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = uint32(value.Val)
	variantClear(value)
	return nil
}

// GetLong retrieves the named VT_I4 property
func (item *WmiResultItem) GetLong(name string, ret *int32) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_I4 {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = int32(value.Val)
	variantClear(value)
	return nil
}

// GetUnsignedLong retrieves the named VT_UI4 property
func (item *WmiResultItem) GetUnsignedLong(name string, ret *uint32) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_UI4 {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = uint32(value.Val)
	variantClear(value)
	return nil
}

// GetLongLong retrieves the named VT_I8 property.  The full 64-bit value is
// returned.
func (item *WmiResultItem) GetLongLong(name string, ret *int64) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_I8 {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = value.Val
	variantClear(value)
	return nil
}

// GetUnsignedLongLong retrieves the named VT_UI8 property.  The full 64-bit
// value is returned.
func (item *WmiResultItem) GetUnsignedLongLong(name string, ret *uint64) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_UI8 {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = uint64(value.Val)
	variantClear(value)
	return nil
}

// GetString retrieves the named VT_BSTR property.  Unlike the numeric getters,
// a failed lookup resets the output to the empty string before reporting the
// failure.
func (item *WmiResultItem) GetString(name string, ret *string) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		*ret = ""
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != ole.VT_BSTR {
		*ret = ""
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = variantToString(value)
	variantClear(value)
	return nil
}

// GetVectorOfStrings retrieves the named VT_ARRAY|VT_BSTR property.  Elements
// are returned in underlying array order, index 0 at the array's lower bound.
func (item *WmiResultItem) GetVectorOfStrings(name string, ret *[]string) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving data from WMI query.")
	}
	if value.VT != (ole.VT_ARRAY | ole.VT_BSTR) {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Invalid data type returned.")
	}
	*ret = variantToStringArray(value)
	variantClear(value)
	return nil
}

// GetDateTime retrieves the named date-time property.  WMI stores date-time
// values as CIM formatted strings, so the property tag must be VT_BSTR; the
// string is then converted to a split FILETIME through the SWbemDateTime
// automation object.  isLocal selects the local time rendering, false selects
// UTC.
func (item *WmiResultItem) GetDateTime(name string, isLocal bool, ret *windows.Filetime) error {
	value, err := item.object.GetProperty(name)
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.PropertyNotFound, "Error retrieving datetime from WMI query result.")
	}
	if value.VT != ole.VT_BSTR {
		variantClear(value)
		return wmierrors.NewWmiError(wmierrors.TypeMismatch, "Expected VT_BSTR, got something else.")
	}

	dateTime := variantToString(value)
	variantClear(value)

	ft, err := cimDateTimeToFileTime(dateTime, isLocal)
	if err != nil {
		return err
	}
	*ret = ft
	return nil
}

// Properties enumerates the item's non-system properties into a name keyed
// map.  Null properties are omitted; properties whose variant type has no
// native representation are skipped with a trace log.
func (item *WmiResultItem) Properties() (map[string]interface{}, error) {
	names, err := item.object.GetPropertyNames()
	if err != nil {
		return nil, wmierrors.NewWmiError(wmierrors.PropertyNotFound, err)
	}

	properties := make(map[string]interface{})
	for _, name := range names {
		value, err := item.object.GetProperty(name)
		if err != nil {
			return nil, wmierrors.NewWmiErrorf(wmierrors.PropertyNotFound, "unable to query property %v: %v", name, err)
		}
		nativeValue, err := variantToValue(value)
		variantClear(value)
		if err != nil {
			log.Tracef("Skipping property with unsupported type, name=%v, err=%v", name, err)
			continue
		}
		if nativeValue != nil {
			properties[name] = nativeValue
		}
	}
	return properties, nil
}
