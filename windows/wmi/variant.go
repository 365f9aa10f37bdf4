// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
)

// This file is the only place untagged native values are converted to tagged
// VARIANTs and back.  The VARIANT tag is always authoritative; a converter
// rejects any value whose tag does not match the requested native type rather
// than attempt coercion.

// BSTR allocation and VARIANT teardown primitives.  Declared as variables so
// tests can install allocation tracking doubles, following the proc variable
// pattern used for the lazy loaded DLL entry points.
var (
	sysAllocString = ole.SysAllocStringLen
	sysFreeString  = func(bstr *int16) {
		ole.SysFreeString(bstr)
	}
	variantClear = func(v *ole.VARIANT) {
		ole.VariantClear(v)
	}
	variantToString = func(v *ole.VARIANT) string {
		return ole.BstrToString((*uint16)(unsafe.Pointer(uintptr(v.Val))))
	}
	variantToStringArray = func(v *ole.VARIANT) []string {
		// go-ole copies element i out of the safe array at lower bound + i, so
		// the returned slice preserves the underlying array order.
		return v.ToArray().ToStringArray()
	}
)

// NewUint32Variant converts a native unsigned 32-bit integer into a VT_UI4
// tagged VARIANT for use as a method input argument.
func NewUint32Variant(value uint32) ole.VARIANT {
	return ole.NewVariant(ole.VT_UI4, int64(value))
}

// NewStringVariant converts a native string into a VT_BSTR tagged VARIANT.
// The BSTR is allocated from the UTF-16 transcoding of the input; the caller
// owns the allocation and must release it exactly once.
func NewStringVariant(value string) (ole.VARIANT, error) {
	bstr := sysAllocString(value)
	if bstr == nil {
		return ole.VARIANT{}, wmierrors.NewWmiError(wmierrors.OutOfMemory, "Out of memory")
	}
	return ole.NewVariant(ole.VT_BSTR, int64(uintptr(unsafe.Pointer(bstr)))), nil
}

// freeVariantString releases the BSTR held by a VT_BSTR tagged VARIANT and
// clears the pointer so a second release is a no-op.
func freeVariantString(v *ole.VARIANT) {
	if v.VT == ole.VT_BSTR && v.Val != 0 {
		sysFreeString((*int16)(unsafe.Pointer(uintptr(v.Val))))
		v.Val = 0
	}
}

// variantToValue converts an enumerated property VARIANT into a native Go
// value for the struct decoder.  Null properties convert to nil.  Tags with no
// native representation report a conversion failure instead of guessing.
func variantToValue(v *ole.VARIANT) (interface{}, error) {
	switch v.VT {
	case ole.VT_NULL, ole.VT_EMPTY:
		return nil, nil
	case ole.VT_BOOL:
		return v.Val != 0, nil
	case ole.VT_I1:
		return int8(v.Val), nil
	case ole.VT_I2:
		return int16(v.Val), nil
	case ole.VT_I4, ole.VT_INT:
		return int32(v.Val), nil
	case ole.VT_I8:
		return v.Val, nil
	case ole.VT_UI1:
		return uint8(v.Val), nil
	case ole.VT_UI2:
		return uint16(v.Val), nil
	case ole.VT_UI4, ole.VT_UINT:
		return uint32(v.Val), nil
	case ole.VT_UI8:
		return uint64(v.Val), nil
	case ole.VT_R4:
		return *(*float32)(unsafe.Pointer(&v.Val)), nil
	case ole.VT_R8:
		return *(*float64)(unsafe.Pointer(&v.Val)), nil
	case ole.VT_BSTR:
		return variantToString(v), nil
	case ole.VT_ARRAY | ole.VT_BSTR:
		return variantToStringArray(v), nil
	default:
		return nil, wmierrors.NewWmiErrorf(wmierrors.ConversionFailed, "unsupported variant type %v", v.VT)
	}
}
