// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
	"github.com/mitchellh/mapstructure"
)

// Decode maps the result item's properties onto the destination struct.
// Fields are matched by name, or by a "wmi" struct tag when present.  Numeric
// widening is allowed so CIM uint64 properties marshaled as strings still land
// in integer fields.
func Decode(item *WmiResultItem, dst interface{}) error {
	properties, err := item.Properties()
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "wmi",
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return wmierrors.NewWmiError(wmierrors.ConversionFailed, err)
	}
	if err := decoder.Decode(properties); err != nil {
		return wmierrors.NewWmiError(wmierrors.ConversionFailed, err)
	}
	return nil
}
