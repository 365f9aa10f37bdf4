// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	ole "github.com/go-ole/go-ole"
)

// WmiMethodArg is a single named method parameter.  The collection owns the
// variant payload; BSTR payloads are freed exactly once by Release.
type WmiMethodArg struct {
	Name  string
	Value ole.VARIANT
}

// WmiMethodArgs accumulates named input parameters for a WMI method call, in
// insertion order.  Repeated names are kept as repeated entries.  The caller
// builds the collection with the Put helpers, hands it to ExecMethod, and
// finally calls Release.  Ownership of the payloads moves with Move; after a
// move the source is empty and its Release is a no-op.
type WmiMethodArgs struct {
	arguments []WmiMethodArg
}

// PutUint32 appends a 32-bit unsigned integer parameter.
func (args *WmiMethodArgs) PutUint32(name string, value uint32) error {
	args.arguments = append(args.arguments, WmiMethodArg{Name: name, Value: NewUint32Variant(value)})
	return nil
}

// PutString appends a string parameter.  The string is copied into a fresh
// BSTR owned by the collection; on allocation failure the collection is left
// unmodified.
func (args *WmiMethodArgs) PutString(name string, value string) error {
	variant, err := NewStringVariant(value)
	if err != nil {
		return err
	}
	args.arguments = append(args.arguments, WmiMethodArg{Name: name, Value: variant})
	return nil
}

// GetArguments returns the accumulated parameters in insertion order.  The
// returned slice is backed by the collection and must not be mutated.
func (args *WmiMethodArgs) GetArguments() []WmiMethodArg {
	return args.arguments
}

// Move transfers ownership of all parameters to the returned collection,
// leaving the source empty.
func (args *WmiMethodArgs) Move() WmiMethodArgs {
	moved := WmiMethodArgs{arguments: args.arguments}
	args.arguments = nil
	return moved
}

// Release frees every owned BSTR payload and empties the collection.  Safe to
// call more than once.
func (args *WmiMethodArgs) Release() {
	for i := range args.arguments {
		freeVariantString(&args.arguments[i].Value)
	}
	args.arguments = nil
}
