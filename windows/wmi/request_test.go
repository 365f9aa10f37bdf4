// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"errors"
	"testing"

	ole "github.com/go-ole/go-ole"
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWmiRequestEmptyQuery(t *testing.T) {
	req, err := NewWmiRequest("", RootCIMV2)
	assert.Nil(t, req)
	require.Error(t, err)
	wmiErr, ok := err.(*wmierrors.WmiError)
	require.True(t, ok)
	assert.Equal(t, wmierrors.InvalidArgument, wmiErr.Code)
}

func installLocatorStub(locator wbemLocator, err error) func() {
	saved := newWbemLocator
	newWbemLocator = func() (wbemLocator, error) {
		return locator, err
	}
	return func() { newWbemLocator = saved }
}

func TestNewWmiRequest(t *testing.T) {
	enumerator := &fakeEnumerator{
		objects: []classObject{&fakeClassObject{}, &fakeClassObject{}},
	}
	services := &fakeServices{enumerator: enumerator}
	locator := &fakeLocator{services: services}
	defer installLocatorStub(locator, nil)()

	req, err := NewWmiRequest("SELECT * FROM Win32_Volume", "")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, RootCIMV2, locator.namespace) // empty namespace defaults
	assert.Len(t, req.Results(), 2)
	assert.NoError(t, req.EnumerationError())

	req.Close()
	assert.Equal(t, 1, enumerator.releases)
	assert.Equal(t, 1, services.releases)
	assert.Equal(t, 1, locator.releases)
}

func TestNewWmiRequestLocatorFailure(t *testing.T) {
	defer installLocatorStub(nil, errors.New("class not registered"))()

	req, err := NewWmiRequest("SELECT * FROM Win32_Volume", RootCIMV2)
	assert.Nil(t, req)
	require.Error(t, err)
	wmiErr, ok := err.(*wmierrors.WmiError)
	require.True(t, ok)
	assert.Equal(t, wmierrors.ConnectionFailed, wmiErr.Code)
	assert.Equal(t, "Failed to create IWbemLocator object.", wmiErr.Text)
}

func TestNewWmiRequestConnectFailure(t *testing.T) {
	locator := &fakeLocator{connectErr: errors.New("invalid namespace")}
	defer installLocatorStub(locator, nil)()

	req, err := NewWmiRequest("SELECT * FROM Win32_Volume", `ROOT\NoSuchNamespace`)
	assert.Nil(t, req)
	require.Error(t, err)
	wmiErr, ok := err.(*wmierrors.WmiError)
	require.True(t, ok)
	assert.Equal(t, wmierrors.ConnectionFailed, wmiErr.Code)
	assert.Equal(t, "Could not connect to WMI namespace.", wmiErr.Text)

	// The locator acquired before the failure was released
	assert.Equal(t, 1, locator.releases)
}

func TestNewWmiRequestQueryFailure(t *testing.T) {
	services := &fakeServices{execQueryErr: errors.New("invalid query")}
	locator := &fakeLocator{services: services}
	defer installLocatorStub(locator, nil)()

	req, err := NewWmiRequest("SELECT * FROM No_Such_Class", RootCIMV2)
	assert.Nil(t, req)
	require.Error(t, err)
	wmiErr, ok := err.(*wmierrors.WmiError)
	require.True(t, ok)
	assert.Equal(t, wmierrors.QueryFailed, wmiErr.Code)
	assert.Equal(t, "WMI query failed.", wmiErr.Text)

	// A mid-chain failure releases everything acquired up to that point
	assert.Equal(t, 1, services.releases)
	assert.Equal(t, 1, locator.releases)
}

func TestDrain(t *testing.T) {
	enumerator := &fakeEnumerator{
		objects: []classObject{&fakeClassObject{}, &fakeClassObject{}, &fakeClassObject{}},
	}
	req := &WmiRequest{id: "test", enumerator: enumerator}
	req.drain()
	assert.Len(t, req.Results(), 3)
	assert.NoError(t, req.EnumerationError())
}

func TestDrainStopsOnEnumerationError(t *testing.T) {
	// An enumeration failure after a successful query keeps the partial
	// result set
	enumerator := &fakeEnumerator{
		objects:  []classObject{&fakeClassObject{}, &fakeClassObject{}},
		finalErr: errors.New("enumeration failed"),
	}
	req := &WmiRequest{id: "test", enumerator: enumerator}
	req.drain()
	assert.Len(t, req.Results(), 2)

	// The failure that stopped the drain is retained
	err := req.EnumerationError()
	require.Error(t, err)
	wmiErr, ok := err.(*wmierrors.WmiError)
	require.True(t, ok)
	assert.Equal(t, wmierrors.EnumerationFailed, wmiErr.Code)
	assert.Equal(t, "enumeration failed", wmiErr.Text)
}

func TestClose(t *testing.T) {
	objects := []*fakeClassObject{{}, {}}
	enumerator := &fakeEnumerator{objects: []classObject{objects[0], objects[1]}}
	services := &fakeServices{}
	req := &WmiRequest{id: "test", services: services, enumerator: enumerator}
	req.drain()
	require.Len(t, req.Results(), 2)

	req.Close()
	assert.Nil(t, req.Results())
	assert.Equal(t, 1, objects[0].releases)
	assert.Equal(t, 1, objects[1].releases)
	assert.Equal(t, 1, enumerator.releases)
	assert.Equal(t, 1, services.releases)

	// Second close is a no-op
	req.Close()
	assert.Equal(t, 1, enumerator.releases)
	assert.Equal(t, 1, services.releases)
}

// execMethodFixture assembles a request, a result item with __CLASS/__PATH
// properties, and the class definition chain the invocation resolves through.
type execMethodFixture struct {
	stubs      *variantStubs
	restore    func()
	req        *WmiRequest
	services   *fakeServices
	item       *WmiResultItem
	definition *fakeClassObject
	inputDef   *fakeClassObject
	instance   *fakeClassObject
	out        *fakeClassObject
}

func newExecMethodFixture() *execMethodFixture {
	f := &execMethodFixture{}
	f.stubs, f.restore = installVariantStubs()

	f.instance = &fakeClassObject{}
	f.inputDef = &fakeClassObject{spawnObj: f.instance}
	f.definition = &fakeClassObject{methodObj: f.inputDef}
	f.out = &fakeClassObject{}

	f.services = &fakeServices{
		objects: map[string]classObject{"Win32_Process": f.definition},
		execOut: f.out,
	}
	f.req = &WmiRequest{id: "test", services: f.services}
	f.item = newWmiResultItem(&fakeClassObject{
		variants: map[string]ole.VARIANT{
			"__CLASS": f.stubs.newBstrVariant(100, "Win32_Process"),
			"__PATH":  f.stubs.newBstrVariant(200, `\\HOST\ROOT\CIMV2:Win32_Process.Handle="42"`),
		},
	})
	return f
}

func TestExecMethod(t *testing.T) {
	f := newExecMethodFixture()
	defer f.restore()

	var args WmiMethodArgs
	require.NoError(t, args.PutUint32("Reason", 1))
	defer args.Release()

	out, err := f.req.ExecMethod(f.item, "Terminate", &args)
	require.NoError(t, err)
	require.NotNil(t, out)

	// Arguments were put on the spawned instance which was then submitted
	// against the item's object path
	assert.Equal(t, []string{"Reason"}, f.instance.putNames)
	assert.Equal(t, `\\HOST\ROOT\CIMV2:Win32_Process.Handle="42"`, f.services.execPath)
	assert.Equal(t, "Terminate", f.services.execMethod)
	assert.Equal(t, f.instance, f.services.execIn)

	// Transient handles were released, the output wrapper was not
	assert.Equal(t, 1, f.definition.releases)
	assert.Equal(t, 1, f.inputDef.releases)
	assert.Equal(t, 1, f.instance.releases)
	assert.Zero(t, f.out.releases)
	out.Release()
	assert.Equal(t, 1, f.out.releases)
}

func TestExecMethodNoInputParameters(t *testing.T) {
	f := newExecMethodFixture()
	defer f.restore()
	f.definition.noMethod = true

	// A nil input definition skips the spawn step even with args present
	var args WmiMethodArgs
	require.NoError(t, args.PutUint32("Reason", 1))
	defer args.Release()

	out, err := f.req.ExecMethod(f.item, "Terminate", &args)
	require.NoError(t, err)
	require.NotNil(t, out)
	defer out.Release()

	assert.Empty(t, f.instance.putNames)
	assert.Zero(t, f.instance.releases)
	assert.Nil(t, f.services.execIn)
	assert.True(t, f.services.execInvoked)
}

func TestExecMethodFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *execMethodFixture)
		wantCode wmierrors.WmiErrorCode
		wantText string
	}{
		{
			name:     "getObject",
			mutate:   func(f *execMethodFixture) { f.services.getObjectErr = errors.New("no class") },
			wantCode: wmierrors.MethodResolutionFailed,
			wantText: "Failed to GetObject",
		},
		{
			name:     "getMethod",
			mutate:   func(f *execMethodFixture) { f.definition.methodErr = errors.New("no method") },
			wantCode: wmierrors.MethodResolutionFailed,
			wantText: "Failed to GetMethod",
		},
		{
			name:     "spawnInstance",
			mutate:   func(f *execMethodFixture) { f.inputDef.spawnErr = errors.New("no instance") },
			wantCode: wmierrors.InvocationFailed,
			wantText: "Failed to SpawnInstance",
		},
		{
			name:     "putArguments",
			mutate:   func(f *execMethodFixture) { f.instance.putErr = errors.New("bad argument") },
			wantCode: wmierrors.InvocationFailed,
			wantText: "Failed to Put arguments",
		},
		{
			name:     "execMethod",
			mutate:   func(f *execMethodFixture) { f.services.execErr = errors.New("invocation failed") },
			wantCode: wmierrors.InvocationFailed,
			wantText: "Failed to ExecMethod",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newExecMethodFixture()
			defer f.restore()
			tc.mutate(f)

			var args WmiMethodArgs
			require.NoError(t, args.PutUint32("Reason", 1))
			defer args.Release()

			out, err := f.req.ExecMethod(f.item, "Terminate", &args)
			assert.Nil(t, out)
			require.Error(t, err)
			wmiErr, ok := err.(*wmierrors.WmiError)
			require.True(t, ok)
			assert.Equal(t, tc.wantCode, wmiErr.Code)
			assert.Equal(t, tc.wantText, wmiErr.Text)
		})
	}
}

func TestExecMethodClosedRequest(t *testing.T) {
	f := newExecMethodFixture()
	defer f.restore()
	f.req.Close()

	out, err := f.req.ExecMethod(f.item, "Terminate", nil)
	assert.Nil(t, out)
	require.Error(t, err)
	wmiErr, ok := err.(*wmierrors.WmiError)
	require.True(t, ok)
	assert.Equal(t, wmierrors.InvalidArgument, wmiErr.Code)
}
