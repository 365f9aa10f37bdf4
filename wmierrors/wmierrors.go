// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

package wmierrors

import (
	"fmt"
	"strconv"

	log "github.com/hpe-storage/common-wmi-libs/logger"
)

type WmiErrorCode uint32

const (
	OK                     WmiErrorCode = 0
	Unknown                WmiErrorCode = 1
	InvalidArgument        WmiErrorCode = 2
	ConnectionFailed       WmiErrorCode = 3
	QueryFailed            WmiErrorCode = 4
	EnumerationFailed      WmiErrorCode = 5
	PropertyNotFound       WmiErrorCode = 6
	TypeMismatch           WmiErrorCode = 7
	OutOfMemory            WmiErrorCode = 8
	MethodResolutionFailed WmiErrorCode = 9
	InvocationFailed       WmiErrorCode = 10
	ConversionFailed       WmiErrorCode = 11
	Internal               WmiErrorCode = 12
	_maxCode               WmiErrorCode = 13
)

const (
	errorMessageInvalidInputParameters = "invalid input parameters"
)

// WmiError is the status object returned by every fallible operation in this
// module.  It carries a closed error code plus human readable text.  Errors are
// always returned, never thrown; callers must check the error before consuming
// any output parameter.
type WmiError struct {
	Code WmiErrorCode `json:"code"`
	Text string       `json:"text,omitempty"`
}

// NewWmiError takes an array of objects and returns a pointer to a WmiError object.
// The following input parameters, in any order, are supported:
//     WmiError     - WmiError object
//     error        - All other error objects
//     WmiErrorCode - WMI error code
//     string       - WMI error text
// This routine parses the input data to create and return a new WmiError object
func NewWmiError(args ...interface{}) *WmiError {

	// These are the optional parameters we support
	var wmiError *WmiError
	var otherError *error
	errorCode := _maxCode
	errorMessage := ""

	// Parse the input parameters and populate local variables
	for _, arg := range args {
		switch arg.(type) {
		case WmiErrorCode:
			errorCode = arg.(WmiErrorCode)
		case string:
			errorMessage = arg.(string)
		case WmiError:
			err := arg.(WmiError)
			wmiError = &err
		case *WmiError:
			wmiError = arg.(*WmiError)
		case error:
			err := arg.(error)
			otherError = &err
		}
	}

	// Create a new initial WmiError object
	err := &WmiError{Code: _maxCode, Text: ""}

	// Populate the WmiError Text property
	if wmiError != nil {
		err = wmiError
	} else if otherError != nil {
		err.Text = (*otherError).Error()
	} else if errorMessage != "" {
		err.Text = errorMessage
	}

	// Populate the WmiError Code property
	if errorCode < _maxCode {
		err.Code = errorCode
	}

	// If neither an error message or an error code were provided, fail with generic error
	if (err.Code == _maxCode) && (err.Text == "") {
		return &WmiError{Code: Internal, Text: errorMessageInvalidInputParameters}
	}

	// Handle condition where WmiError Code property is still empty
	if err.Code == _maxCode {
		err.Code = Unknown
	}

	// Handle condition where WmiError text property is still empty
	if err.Text == "" {
		err.Text = err.Code.String()
	}

	return err
}

func NewWmiErrorf(c WmiErrorCode, format string, a ...interface{}) *WmiError {
	return &WmiError{Code: c, Text: fmt.Sprintf(format, a...)}
}

func (e *WmiError) Error() string {
	return fmt.Sprintf("status: %d msg: %s", e.Code, e.Text)
}

func (e *WmiError) LogAndError() *WmiError {
	log.Errorln(e.Error())
	return e
}

// ErrorCode returns the status code contained in WmiError
func (e *WmiError) ErrorCode() WmiErrorCode {
	if e == nil {
		return OK
	}
	return e.Code
}

// ErrorText returns the text contained in WmiError
func (e *WmiError) ErrorText() string {
	if e == nil {
		return ""
	}
	return e.Text
}

func (c WmiErrorCode) String() string {
	switch c {
	case OK:
		return "OK"
	case Unknown:
		return "Unknown"
	case InvalidArgument:
		return "InvalidArgument"
	case ConnectionFailed:
		return "ConnectionFailed"
	case QueryFailed:
		return "QueryFailed"
	case EnumerationFailed:
		return "EnumerationFailed"
	case PropertyNotFound:
		return "PropertyNotFound"
	case TypeMismatch:
		return "TypeMismatch"
	case OutOfMemory:
		return "OutOfMemory"
	case MethodResolutionFailed:
		return "MethodResolutionFailed"
	case InvocationFailed:
		return "InvocationFailed"
	case ConversionFailed:
		return "ConversionFailed"
	case Internal:
		return "Internal"
	default:
		return "Code(" + strconv.FormatInt(int64(c), 10) + ")"
	}
}
