// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"runtime"

	log "github.com/hpe-storage/common-wmi-libs/logger"
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
	uuid "github.com/satori/go.uuid"
)

// WmiRequest owns one complete WMI connection chain: locator, services proxy,
// enumerator, and the result items drained from it.  The heavy work happens in
// NewWmiRequest; a request that constructs without error holds a fully drained
// result set and a live services proxy for follow-up method invocations.
// Close releases every COM handle the request owns, newest first, and is safe
// to call more than once.
type WmiRequest struct {
	id         string
	namespace  string
	query      string
	locator    wbemLocator
	services   wbemServices
	enumerator objectEnumerator
	results    []*WmiResultItem
	drainErr   error
	closed     bool
}

// NewWmiRequest connects to the given WMI namespace, executes the WQL query,
// and drains the enumerator into result items.  An empty namespace selects
// ROOT\CIMV2.  On any failure the partially built chain is released and a nil
// request is returned with the error.
func NewWmiRequest(query string, namespace string) (*WmiRequest, error) {
	if query == "" {
		return nil, wmierrors.NewWmiError(wmierrors.InvalidArgument, "Empty WMI query string.")
	}
	if namespace == "" {
		namespace = RootCIMV2
	}

	req := &WmiRequest{
		id:        uuid.NewV4().String(),
		namespace: namespace,
		query:     query,
	}
	log.Tracef(">>>>> NewWmiRequest, id=%v, namespace=%v, query=%v", req.id, req.namespace, req.query)
	defer log.Tracef("<<<<< NewWmiRequest, id=%v", req.id)

	// Serialize WMI access and pin the goroutine to its OS thread for the
	// duration of the COM call sequence.
	lock.Lock()
	defer lock.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !ensureComInitialized() {
		return nil, wmierrors.NewWmiError(wmierrors.ConnectionFailed, "Unable to initialize COM library.")
	}

	if err := req.connect(); err != nil {
		req.release()
		return nil, err
	}
	if err := req.execQuery(); err != nil {
		req.release()
		return nil, err
	}
	req.drain()
	return req, nil
}

// connect obtains the WbemLocator and connects it to the request's namespace.
func (req *WmiRequest) connect() error {
	locator, err := newWbemLocator()
	if err != nil {
		log.Errorf("Failed to create IWbemLocator object, id=%v, err=%v", req.id, err)
		return wmierrors.NewWmiError(wmierrors.ConnectionFailed, "Failed to create IWbemLocator object.")
	}
	req.locator = locator

	services, err := locator.ConnectServer(req.namespace)
	if err != nil {
		log.Errorf("Could not connect to WMI namespace, id=%v, namespace=%v, err=%v", req.id, req.namespace, err)
		return wmierrors.NewWmiError(wmierrors.ConnectionFailed, "Could not connect to WMI namespace.")
	}
	req.services = services
	return nil
}

// execQuery submits the request's WQL query and stores the enumerator.
func (req *WmiRequest) execQuery() error {
	enumerator, err := req.services.ExecQuery(req.query)
	if err != nil {
		log.Errorf("WMI query failed, id=%v, query=%v, err=%v", req.id, req.query, err)
		return wmierrors.NewWmiError(wmierrors.QueryFailed, "WMI query failed.")
	}
	req.enumerator = enumerator
	return nil
}

// drain pulls every object out of the enumerator into result items.  An
// enumeration error after a successful query stops the drain and keeps the
// results collected so far; the error is retained for EnumerationError.
func (req *WmiRequest) drain() {
	for {
		object, more, err := req.enumerator.Next()
		if err != nil {
			log.Errorf("WMI enumeration stopped early, id=%v, results=%v, err=%v", req.id, len(req.results), err)
			req.drainErr = wmierrors.NewWmiError(wmierrors.EnumerationFailed, err)
			return
		}
		if !more {
			return
		}
		req.results = append(req.results, newWmiResultItem(object))
	}
}

// Results returns the drained result items.  The request retains ownership;
// the items are released by Close.
func (req *WmiRequest) Results() []*WmiResultItem {
	return req.results
}

// ID returns the request's correlation identifier used in its log entries.
func (req *WmiRequest) ID() string {
	return req.id
}

// EnumerationError returns the error that stopped the drain early, or nil when
// the enumerator was drained to a clean end of results.  The results collected
// before the failure remain available through Results.
func (req *WmiRequest) EnumerationError() error {
	return req.drainErr
}

// Close releases everything the request owns, newest handle first.  Safe to
// call more than once.
func (req *WmiRequest) Close() {
	if req.closed {
		return
	}
	req.closed = true

	lock.Lock()
	defer lock.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	req.release()
}

// release tears down the chain without touching the closed flag or the package
// lock; callers hold the lock already.
func (req *WmiRequest) release() {
	for i := len(req.results) - 1; i >= 0; i-- {
		req.results[i].Release()
	}
	req.results = nil
	if req.enumerator != nil {
		req.enumerator.Release()
		req.enumerator = nil
	}
	if req.services != nil {
		req.services.Release()
		req.services = nil
	}
	if req.locator != nil {
		req.locator.Release()
		req.locator = nil
	}
}

// ExecMethod invokes the named method on the class instance wrapped by the
// given result item, which must belong to this request.  The instance's class
// definition is resolved through the services proxy, the method's input
// parameter definition is spawned and populated from args in insertion order,
// and the populated instance is submitted against the item's object path.  A
// method whose definition declares no input parameters skips the spawn step
// entirely, even when args is non-empty.  The returned item wraps the method's
// output parameters; the caller owns it and must release it.
func (req *WmiRequest) ExecMethod(object *WmiResultItem, method string, args *WmiMethodArgs) (*WmiResultItem, error) {
	log.Tracef(">>>>> ExecMethod, id=%v, method=%v", req.id, method)
	defer log.Tracef("<<<<< ExecMethod, id=%v, method=%v", req.id, method)

	if req.closed || req.services == nil {
		return nil, wmierrors.NewWmiError(wmierrors.InvalidArgument, "Request is closed.")
	}

	lock.Lock()
	defer lock.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var className string
	if err := object.GetString("__CLASS", &className); err != nil {
		log.Errorf("Failed to retrieve class name, id=%v, err=%v", req.id, err)
		return nil, wmierrors.NewWmiError(wmierrors.MethodResolutionFailed, "Failed to GetObject")
	}

	classDefinition, err := req.services.GetObject(className)
	if err != nil {
		log.Errorf("Failed to retrieve class definition, id=%v, class=%v, err=%v", req.id, className, err)
		return nil, wmierrors.NewWmiError(wmierrors.MethodResolutionFailed, "Failed to GetObject")
	}
	defer classDefinition.Release()

	inputDefinition, err := classDefinition.GetMethod(method)
	if err != nil {
		log.Errorf("Failed to retrieve method definition, id=%v, class=%v, method=%v, err=%v", req.id, className, method, err)
		return nil, wmierrors.NewWmiError(wmierrors.MethodResolutionFailed, "Failed to GetMethod")
	}

	// A nil input definition means the method takes no input parameters; the
	// invocation proceeds with no argument instance.
	var inputInstance classObject
	if inputDefinition != nil {
		defer inputDefinition.Release()

		inputInstance, err = inputDefinition.SpawnInstance()
		if err != nil {
			log.Errorf("Failed to spawn argument instance, id=%v, method=%v, err=%v", req.id, method, err)
			return nil, wmierrors.NewWmiError(wmierrors.InvocationFailed, "Failed to SpawnInstance")
		}
		defer inputInstance.Release()

		if args != nil {
			arguments := args.GetArguments()
			for i := range arguments {
				if err := inputInstance.PutProperty(arguments[i].Name, &arguments[i].Value); err != nil {
					log.Errorf("Failed to put method argument, id=%v, method=%v, argument=%v, err=%v", req.id, method, arguments[i].Name, err)
					return nil, wmierrors.NewWmiError(wmierrors.InvocationFailed, "Failed to Put arguments")
				}
			}
		}
	}

	var objectPath string
	if err := object.GetString("__PATH", &objectPath); err != nil {
		log.Errorf("Failed to retrieve object path, id=%v, err=%v", req.id, err)
		return nil, wmierrors.NewWmiError(wmierrors.InvocationFailed, "Failed to ExecMethod")
	}

	outParams, err := req.services.ExecMethod(objectPath, method, inputInstance)
	if err != nil {
		log.Errorf("Method invocation failed, id=%v, path=%v, method=%v, err=%v", req.id, objectPath, method, err)
		return nil, wmierrors.NewWmiError(wmierrors.InvocationFailed, "Failed to ExecMethod")
	}
	return newWmiResultItem(outParams), nil
}
