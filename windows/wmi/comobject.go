// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// wbemLocator is the narrow surface of IWbemLocator the package consumes.
// newWbemLocator builds the COM backed implementation; tests install a fake to
// drive the request construction chain.
type wbemLocator interface {
	ConnectServer(namespace string) (wbemServices, error)
	Release()
}

var newWbemLocator = func() (wbemLocator, error) {
	unknown, err := ole.CreateInstance(CLSID_WbemLocator, IID_IWbemLocator)
	if err != nil {
		return nil, err
	}
	return &comLocator{loc: unknown}, nil
}

// classObject is the narrow surface of IWbemClassObject the package consumes.
// The COM backed implementation lives below; test fakes stand in for it when
// exercising the getter and method invocation protocols.
type classObject interface {
	GetProperty(name string) (*ole.VARIANT, error)
	GetPropertyNames() ([]string, error)
	PutProperty(name string, value *ole.VARIANT) error
	GetMethod(name string) (classObject, error)
	SpawnInstance() (classObject, error)
	Release()
}

// wbemServices is the narrow surface of IWbemServices the package consumes.
type wbemServices interface {
	ExecQuery(query string) (objectEnumerator, error)
	GetObject(path string) (classObject, error)
	ExecMethod(objectPath, method string, in classObject) (classObject, error)
	Release()
}

// objectEnumerator is the narrow surface of IEnumWbemClassObject the package
// consumes.  Next blocks until the remote service produces the next object or
// signals end of results.
type objectEnumerator interface {
	Next() (classObject, bool, error)
	Release()
}

// comLocator wraps one IWbemLocator handle
type comLocator struct {
	loc *ole.IUnknown
}

// comClassObject wraps one IWbemClassObject handle
type comClassObject struct {
	obj *ole.IUnknown
}

// comServices wraps one IWbemServices handle
type comServices struct {
	svc *ole.IUnknown
}

// comEnumerator wraps one IEnumWbemClassObject handle
type comEnumerator struct {
	enum *ole.IUnknown
}

// ConnectServer connects the locator to the given WMI namespace and returns
// the services proxy for it.
func (l *comLocator) ConnectServer(namespace string) (wbemServices, error) {
	namespaceUTF16 := syscall.StringToUTF16(namespace)

	var services *ole.IUnknown
	myVTable := (*IWbemLocatorVtbl)(unsafe.Pointer(l.loc.RawVTable))
	hres, _, _ := syscall.Syscall9(myVTable.ConnectServer, 9, // Call the IWbemLocator::ConnectServer method
		uintptr(unsafe.Pointer(l.loc)),
		uintptr(unsafe.Pointer(&namespaceUTF16[0])),
		uintptr(0), // User
		uintptr(0), // Password
		uintptr(0), // Locale
		uintptr(0), // Security flags
		uintptr(0), // Authority
		uintptr(0), // Context
		uintptr(unsafe.Pointer(&services)))
	if FAILED(hres) {
		return nil, ole.NewError(hres)
	}
	return &comServices{svc: services}, nil
}

func (l *comLocator) Release() {
	if l.loc != nil {
		l.loc.Release()
		l.loc = nil
	}
}

// GetProperty resolves the named property into a fresh VARIANT.  The caller
// owns the returned VARIANT and must clear it on every path.
func (c *comClassObject) GetProperty(name string) (*ole.VARIANT, error) {
	nameUTF16 := syscall.StringToUTF16(name)

	var value ole.VARIANT
	var cimType CIMTYPE_ENUMERATION
	var flavor int32

	myVTable := (*IWbemClassObjectVtbl)(unsafe.Pointer(c.obj.RawVTable))
	hres, _, _ := syscall.Syscall6(myVTable.Get, 6, // Call the IWbemClassObject::Get method
		uintptr(unsafe.Pointer(c.obj)),
		uintptr(unsafe.Pointer(&nameUTF16[0])),
		uintptr(0),
		uintptr(unsafe.Pointer(&value)),
		uintptr(unsafe.Pointer(&cimType)),
		uintptr(unsafe.Pointer(&flavor)))
	if hres != S_OK {
		return nil, ole.NewError(hres)
	}
	return &value, nil
}

// GetPropertyNames enumerates the names of the object's non-system properties.
func (c *comClassObject) GetPropertyNames() ([]string, error) {
	var propertyNames *ole.SafeArray

	myVTable := (*IWbemClassObjectVtbl)(unsafe.Pointer(c.obj.RawVTable))
	hres, _, _ := syscall.Syscall6(myVTable.GetNames, 5, // Call the IWbemClassObject::GetNames method
		uintptr(unsafe.Pointer(c.obj)),
		uintptr(0),
		uintptr(WBEM_FLAG_ALWAYS|WBEM_FLAG_NONSYSTEM_ONLY),
		uintptr(0),
		uintptr(unsafe.Pointer(&propertyNames)),
		uintptr(0))
	if FAILED(hres) {
		return nil, ole.NewError(hres)
	}

	safePropertyNames := ole.SafeArrayConversion{Array: propertyNames}
	defer safePropertyNames.Release()
	return safePropertyNames.ToStringArray(), nil
}

// PutProperty writes the given VARIANT into the named property.  Writing the
// same name twice overwrites the previous value.
func (c *comClassObject) PutProperty(name string, value *ole.VARIANT) error {
	nameUTF16 := syscall.StringToUTF16(name)

	myVTable := (*IWbemClassObjectVtbl)(unsafe.Pointer(c.obj.RawVTable))
	hres, _, _ := syscall.Syscall6(myVTable.Put, 5, // Call the IWbemClassObject::Put method
		uintptr(unsafe.Pointer(c.obj)),
		uintptr(unsafe.Pointer(&nameUTF16[0])),
		uintptr(0),
		uintptr(unsafe.Pointer(value)),
		uintptr(0),
		uintptr(0))
	if FAILED(hres) {
		return ole.NewError(hres)
	}
	return nil
}

// GetMethod resolves the named method's input parameter definition.  GetMethod
// only works on CIM class definition objects, not on instances.  A method with
// no input parameters resolves to a nil classObject with no error.
func (c *comClassObject) GetMethod(name string) (classObject, error) {
	nameUTF16 := syscall.StringToUTF16(name)

	var raw *ole.IUnknown
	myVTable := (*IWbemClassObjectVtbl)(unsafe.Pointer(c.obj.RawVTable))
	hres, _, _ := syscall.Syscall6(myVTable.GetMethod, 5, // Call the IWbemClassObject::GetMethod method
		uintptr(unsafe.Pointer(c.obj)),
		uintptr(unsafe.Pointer(&nameUTF16[0])),
		uintptr(0),
		uintptr(unsafe.Pointer(&raw)),
		uintptr(0),
		uintptr(0))
	if FAILED(hres) {
		return nil, ole.NewError(hres)
	}
	if raw == nil {
		return nil, nil
	}
	return &comClassObject{obj: raw}, nil
}

// SpawnInstance creates a blank instance of this class definition.
func (c *comClassObject) SpawnInstance() (classObject, error) {
	var raw *ole.IUnknown
	myVTable := (*IWbemClassObjectVtbl)(unsafe.Pointer(c.obj.RawVTable))
	hres, _, _ := syscall.Syscall(myVTable.SpawnInstance, 3, // Call the IWbemClassObject::SpawnInstance method
		uintptr(unsafe.Pointer(c.obj)),
		uintptr(0),
		uintptr(unsafe.Pointer(&raw)))
	if FAILED(hres) {
		return nil, ole.NewError(hres)
	}
	return &comClassObject{obj: raw}, nil
}

func (c *comClassObject) Release() {
	if c.obj != nil {
		c.obj.Release()
		c.obj = nil
	}
}

// ExecQuery submits the WQL query and returns the forward-only enumerator over
// the result set.
func (s *comServices) ExecQuery(query string) (objectEnumerator, error) {
	wqlUTF16 := syscall.StringToUTF16(`WQL`)
	queryUTF16 := syscall.StringToUTF16(query)

	var pEnumerator *ole.IUnknown
	myVTable := (*IWbemServicesVtbl)(unsafe.Pointer(s.svc.RawVTable))
	hres, _, _ := syscall.Syscall6(myVTable.ExecQuery, 6, // Call the IWbemServices::ExecQuery method
		uintptr(unsafe.Pointer(s.svc)),
		uintptr(unsafe.Pointer(&wqlUTF16[0])),
		uintptr(unsafe.Pointer(&queryUTF16[0])),
		uintptr(WBEM_FLAG_FORWARD_ONLY),
		uintptr(0),
		uintptr(unsafe.Pointer(&pEnumerator)))
	if hres != S_OK {
		return nil, ole.NewError(hres)
	}
	return &comEnumerator{enum: pEnumerator}, nil
}

// GetObject obtains a CIM class definition object by object path
func (s *comServices) GetObject(path string) (classObject, error) {
	pathBSTR := sysAllocString(path)
	if pathBSTR == nil {
		return nil, ole.NewError(uintptr(ole.E_OUTOFMEMORY))
	}
	defer sysFreeString(pathBSTR)

	var raw *ole.IUnknown
	myVTable := (*IWbemServicesVtbl)(unsafe.Pointer(s.svc.RawVTable))
	hres, _, _ := syscall.Syscall6(myVTable.GetObject, 6, // Call the IWbemServices::GetObject method
		uintptr(unsafe.Pointer(s.svc)),
		uintptr(unsafe.Pointer(pathBSTR)),
		uintptr(0),
		uintptr(0),
		uintptr(unsafe.Pointer(&raw)),
		uintptr(0))
	if FAILED(hres) {
		return nil, ole.NewError(hres)
	}
	return &comClassObject{obj: raw}, nil
}

// ExecMethod invokes the named method on the object identified by objectPath.
// The optional in parameter carries the populated argument instance; the
// returned classObject holds the method's output parameters.
func (s *comServices) ExecMethod(objectPath, method string, in classObject) (classObject, error) {
	pathBSTR := sysAllocString(objectPath)
	if pathBSTR == nil {
		return nil, ole.NewError(uintptr(ole.E_OUTOFMEMORY))
	}
	defer sysFreeString(pathBSTR)

	methodBSTR := sysAllocString(method)
	if methodBSTR == nil {
		return nil, ole.NewError(uintptr(ole.E_OUTOFMEMORY))
	}
	defer sysFreeString(methodBSTR)

	var inPtr uintptr
	if in != nil {
		inPtr = uintptr(unsafe.Pointer(in.(*comClassObject).obj))
	}

	var outParams *ole.IUnknown
	myVTable := (*IWbemServicesVtbl)(unsafe.Pointer(s.svc.RawVTable))
	hres, _, _ := syscall.Syscall9(myVTable.ExecMethod, 8, // Call the IWbemServices::ExecMethod method
		uintptr(unsafe.Pointer(s.svc)),
		uintptr(unsafe.Pointer(pathBSTR)),
		uintptr(unsafe.Pointer(methodBSTR)),
		uintptr(0),
		uintptr(0),
		inPtr,
		uintptr(unsafe.Pointer(&outParams)),
		uintptr(0),
		uintptr(0))
	if FAILED(hres) {
		return nil, ole.NewError(hres)
	}
	return &comClassObject{obj: outParams}, nil
}

func (s *comServices) Release() {
	if s.svc != nil {
		s.svc.Release()
		s.svc = nil
	}
}

// Next pulls the next single object from the forward-only enumerator, blocking
// for as long as the remote service takes.  The second return value is false
// once the enumerator signals end of results.
func (e *comEnumerator) Next() (classObject, bool, error) {
	var pclsObj *ole.IUnknown
	var uReturn uint32

	myVTable := (*IEnumWbemClassObjectVtbl)(unsafe.Pointer(e.enum.RawVTable))
	hres, _, _ := syscall.Syscall6(myVTable.Next, 5, // Call the IEnumWbemClassObject::Next method
		uintptr(unsafe.Pointer(e.enum)),
		uintptr(WBEM_INFINITE),
		uintptr(1),
		uintptr(unsafe.Pointer(&pclsObj)),
		uintptr(unsafe.Pointer(&uReturn)),
		uintptr(0))

	if uReturn == 0 {
		if (hres != WBEM_S_NO_ERROR) && (hres != WBEM_S_FALSE) {
			return nil, false, ole.NewError(hres)
		}
		return nil, false, nil
	}
	return &comClassObject{obj: pclsObj}, true, nil
}

func (e *comEnumerator) Release() {
	if e.enum != nil {
		e.enum.Release()
		e.enum = nil
	}
}
