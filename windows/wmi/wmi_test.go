// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"errors"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// In-memory doubles for the OLE variant primitives.  Variants carry opaque
// handles in Val; the stub maps resolve them to Go values so the conversion
// protocols can be exercised without touching OLE.
type variantStubs struct {
	allocs       int
	frees        int
	cleared      int
	failAlloc    bool
	strings      map[int64]string
	stringArrays map[int64][]string
}

func installVariantStubs() (*variantStubs, func()) {
	stubs := &variantStubs{
		strings:      make(map[int64]string),
		stringArrays: make(map[int64][]string),
	}

	savedAlloc := sysAllocString
	savedFree := sysFreeString
	savedClear := variantClear
	savedToString := variantToString
	savedToStringArray := variantToStringArray

	sysAllocString = func(value string) *int16 {
		if stubs.failAlloc {
			return nil
		}
		stubs.allocs++
		bstr := new(int16)
		stubs.strings[int64(uintptr(unsafe.Pointer(bstr)))] = value
		return bstr
	}
	sysFreeString = func(bstr *int16) {
		stubs.frees++
	}
	variantClear = func(v *ole.VARIANT) {
		stubs.cleared++
	}
	variantToString = func(v *ole.VARIANT) string {
		return stubs.strings[v.Val]
	}
	variantToStringArray = func(v *ole.VARIANT) []string {
		return stubs.stringArrays[v.Val]
	}

	restore := func() {
		sysAllocString = savedAlloc
		sysFreeString = savedFree
		variantClear = savedClear
		variantToString = savedToString
		variantToStringArray = savedToStringArray
	}
	return stubs, restore
}

// newBstrVariant registers value under the given opaque handle and returns a
// VT_BSTR variant carrying it.
func (s *variantStubs) newBstrVariant(handle int64, value string) ole.VARIANT {
	s.strings[handle] = value
	return ole.NewVariant(ole.VT_BSTR, handle)
}

// newStringArrayVariant registers values under the given opaque handle and
// returns a VT_ARRAY|VT_BSTR variant carrying them.
func (s *variantStubs) newStringArrayVariant(handle int64, values []string) ole.VARIANT {
	s.stringArrays[handle] = values
	return ole.NewVariant(ole.VT_ARRAY|ole.VT_BSTR, handle)
}

// In-memory doubles for the SWbemDateTime dispatch primitives.  The dispatch
// pointer handed out by the create stub is a placeholder; every operation on it
// is stubbed, so it is never dereferenced.
type dateTimeStubs struct {
	createErr error
	putValue  string
	putErr    error
	isLocal   bool
	fileTime  string
	getErr    error
	releases  int
}

func installDateTimeStubs() (*dateTimeStubs, func()) {
	stubs := &dateTimeStubs{}

	savedCreate := createSWbemDateTime
	savedPut := putSWbemDateTimeValue
	savedGet := getSWbemFileTime
	savedRelease := releaseSWbemDateTime

	createSWbemDateTime = func() (*ole.IDispatch, error) {
		if stubs.createErr != nil {
			return nil, stubs.createErr
		}
		return &ole.IDispatch{}, nil
	}
	putSWbemDateTimeValue = func(dateTime *ole.IDispatch, value string) error {
		if stubs.putErr != nil {
			return stubs.putErr
		}
		stubs.putValue = value
		return nil
	}
	getSWbemFileTime = func(dateTime *ole.IDispatch, isLocal bool) (string, error) {
		if stubs.getErr != nil {
			return "", stubs.getErr
		}
		stubs.isLocal = isLocal
		return stubs.fileTime, nil
	}
	releaseSWbemDateTime = func(dateTime *ole.IDispatch) {
		stubs.releases++
	}

	restore := func() {
		createSWbemDateTime = savedCreate
		putSWbemDateTimeValue = savedPut
		getSWbemFileTime = savedGet
		releaseSWbemDateTime = savedRelease
	}
	return stubs, restore
}

// fakeLocator is an in-memory wbemLocator double
type fakeLocator struct {
	services   wbemServices
	namespace  string
	connectErr error
	releases   int
}

func (f *fakeLocator) ConnectServer(namespace string) (wbemServices, error) {
	f.namespace = namespace
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return f.services, nil
}

func (f *fakeLocator) Release() {
	f.releases++
}

// fakeClassObject is an in-memory classObject double
type fakeClassObject struct {
	variants  map[string]ole.VARIANT
	getErr    map[string]error
	names     []string
	namesErr  error
	putNames  []string
	putErr    error
	methodObj classObject
	methodErr error
	noMethod  bool // GetMethod resolves to a nil input definition
	spawnObj  classObject
	spawnErr  error
	releases  int
}

func (f *fakeClassObject) GetProperty(name string) (*ole.VARIANT, error) {
	if err := f.getErr[name]; err != nil {
		return nil, err
	}
	value, ok := f.variants[name]
	if !ok {
		return nil, errors.New("no such property")
	}
	copied := value
	return &copied, nil
}

func (f *fakeClassObject) GetPropertyNames() ([]string, error) {
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	return f.names, nil
}

func (f *fakeClassObject) PutProperty(name string, value *ole.VARIANT) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putNames = append(f.putNames, name)
	return nil
}

func (f *fakeClassObject) GetMethod(name string) (classObject, error) {
	if f.methodErr != nil {
		return nil, f.methodErr
	}
	if f.noMethod {
		return nil, nil
	}
	return f.methodObj, nil
}

func (f *fakeClassObject) SpawnInstance() (classObject, error) {
	if f.spawnErr != nil {
		return nil, f.spawnErr
	}
	return f.spawnObj, nil
}

func (f *fakeClassObject) Release() {
	f.releases++
}

// fakeServices is an in-memory wbemServices double
type fakeServices struct {
	enumerator   objectEnumerator
	execQueryErr error
	objects      map[string]classObject
	getObjectErr error
	execOut      classObject
	execErr      error
	execPath     string
	execMethod   string
	execIn       classObject
	execInvoked  bool
	releases     int
}

func (f *fakeServices) ExecQuery(query string) (objectEnumerator, error) {
	if f.execQueryErr != nil {
		return nil, f.execQueryErr
	}
	return f.enumerator, nil
}

func (f *fakeServices) GetObject(path string) (classObject, error) {
	if f.getObjectErr != nil {
		return nil, f.getObjectErr
	}
	object, ok := f.objects[path]
	if !ok {
		return nil, errors.New("no such object")
	}
	return object, nil
}

func (f *fakeServices) ExecMethod(objectPath, method string, in classObject) (classObject, error) {
	f.execInvoked = true
	f.execPath = objectPath
	f.execMethod = method
	f.execIn = in
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.execOut, nil
}

func (f *fakeServices) Release() {
	f.releases++
}

// fakeEnumerator replays a fixed sequence of class objects, optionally ending
// with an enumeration error instead of a clean end of results.
type fakeEnumerator struct {
	objects  []classObject
	index    int
	finalErr error
	releases int
}

func (f *fakeEnumerator) Next() (classObject, bool, error) {
	if f.index >= len(f.objects) {
		if f.finalErr != nil {
			return nil, false, f.finalErr
		}
		return nil, false, nil
	}
	object := f.objects[f.index]
	f.index++
	return object, true, nil
}

func (f *fakeEnumerator) Release() {
	f.releases++
}
