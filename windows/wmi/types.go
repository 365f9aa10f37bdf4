// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

// Package wmi provides typed access to WMI through the raw COM interfaces.  A
// WmiRequest owns one locator/services/enumerator connection chain, executes a
// single WQL query, and drains the enumerator into WmiResultItem objects whose
// typed getters validate the VARIANT tag before any conversion takes place.
package wmi

import (
	"runtime"
	"sync"

	ole "github.com/go-ole/go-ole"
	log "github.com/hpe-storage/common-wmi-libs/logger"
	"golang.org/x/sys/windows"
)

// Package variables
var (
	// Only one WMI request runs at a time
	lock sync.Mutex

	// Lazy load the ole32.dll APIs
	ole32                    = windows.NewLazySystemDLL("ole32.dll")
	procCoInitializeSecurity = ole32.NewProc("CoInitializeSecurity")

	// WMI Class and Interface GUIDs
	CLSID_WbemLocator    = ole.NewGUID("4590f811-1d3a-11d0-891f-00aa004b2e24")
	IID_IWbemLocator     = ole.NewGUID("dc12a687-737f-11cf-884d-00aa004b2e24")
	IID_IWbemClassObject = ole.NewGUID("dc12a681-737f-11cf-884d-00aa004b2e24")

	comInitOnce    sync.Once
	comInitialized bool // Did COM successfully initialize?
)

// Namespaces commonly used for WMI queries
const (
	RootCIMV2                   = `ROOT\CIMV2`
	RootMicrosoftWindowsStorage = `ROOT\Microsoft\Windows\Storage`
	RootMSCluster               = `ROOT\MSCluster`
	RootWMI                     = `ROOT\WMI`
)

// HRESULT values
const (
	S_OK                     = 0
	S_FALSE                  = 1
	WBEM_S_NO_ERROR          = 0
	WBEM_S_FALSE             = 1
	WBEM_E_CRITICAL_ERROR    = 0x8004100A
	WBEM_E_NOT_SUPPORTED     = 0x8004100C
	WBEM_E_INVALID_NAMESPACE = 0x8004100E
	WBEM_E_INVALID_CLASS     = 0x80041010
	RPC_E_TOO_LATE           = 0x80010119
)

// The CIMTYPE_ENUMERATION enumeration defines values that specify different CIM data types
type CIMTYPE_ENUMERATION uint32

const (
	CIM_ILLEGAL    CIMTYPE_ENUMERATION = 0xFFF
	CIM_EMPTY      CIMTYPE_ENUMERATION = 0
	CIM_SINT8      CIMTYPE_ENUMERATION = 16
	CIM_UINT8      CIMTYPE_ENUMERATION = 17
	CIM_SINT16     CIMTYPE_ENUMERATION = 2
	CIM_UINT16     CIMTYPE_ENUMERATION = 18
	CIM_SINT32     CIMTYPE_ENUMERATION = 3
	CIM_UINT32     CIMTYPE_ENUMERATION = 19
	CIM_SINT64     CIMTYPE_ENUMERATION = 20
	CIM_UINT64     CIMTYPE_ENUMERATION = 21
	CIM_REAL32     CIMTYPE_ENUMERATION = 4
	CIM_REAL64     CIMTYPE_ENUMERATION = 5
	CIM_BOOLEAN    CIMTYPE_ENUMERATION = 11
	CIM_STRING     CIMTYPE_ENUMERATION = 8
	CIM_DATETIME   CIMTYPE_ENUMERATION = 101
	CIM_REFERENCE  CIMTYPE_ENUMERATION = 102
	CIM_CHAR16     CIMTYPE_ENUMERATION = 103
	CIM_OBJECT     CIMTYPE_ENUMERATION = 13
	CIM_FLAG_ARRAY CIMTYPE_ENUMERATION = 0x2000
)

// EOLE_AUTHENTICATION_CAPABILITIES specifies various capabilities in CoInitializeSecurity
// and IClientSecurity::SetBlanket (or its helper function CoSetProxyBlanket).
type EOLE_AUTHENTICATION_CAPABILITIES uint32

const (
	EOAC_NONE            EOLE_AUTHENTICATION_CAPABILITIES = 0
	EOAC_MUTUAL_AUTH     EOLE_AUTHENTICATION_CAPABILITIES = 0x1
	EOAC_STATIC_CLOAKING EOLE_AUTHENTICATION_CAPABILITIES = 0x20
	EOAC_SECURE_REFS     EOLE_AUTHENTICATION_CAPABILITIES = 0x2
	EOAC_DEFAULT         EOLE_AUTHENTICATION_CAPABILITIES = 0x800
)

// Authentication Level Constants
const (
	RPC_C_AUTHN_LEVEL_DEFAULT       = 0
	RPC_C_AUTHN_LEVEL_NONE          = 1
	RPC_C_AUTHN_LEVEL_CONNECT       = 2
	RPC_C_AUTHN_LEVEL_CALL          = 3
	RPC_C_AUTHN_LEVEL_PKT           = 4
	RPC_C_AUTHN_LEVEL_PKT_INTEGRITY = 5
	RPC_C_AUTHN_LEVEL_PKT_PRIVACY   = 6
)

// Impersonation Level Constants
const (
	RPC_C_IMP_LEVEL_DEFAULT     = 0
	RPC_C_IMP_LEVEL_ANONYMOUS   = 1
	RPC_C_IMP_LEVEL_IDENTIFY    = 2
	RPC_C_IMP_LEVEL_IMPERSONATE = 3
	RPC_C_IMP_LEVEL_DELEGATE    = 4
)

// WBEM_GENERIC_FLAG_TYPE enumeration is used to indicate and update the type of the flag
type WBEM_GENERIC_FLAG_TYPE uint32

const (
	WBEM_FLAG_RETURN_WBEM_COMPLETE WBEM_GENERIC_FLAG_TYPE = 0x0
	WBEM_FLAG_RETURN_IMMEDIATELY   WBEM_GENERIC_FLAG_TYPE = 0x10
	WBEM_FLAG_FORWARD_ONLY         WBEM_GENERIC_FLAG_TYPE = 0x20
	WBEM_FLAG_NO_ERROR_OBJECT      WBEM_GENERIC_FLAG_TYPE = 0x40
	WBEM_FLAG_SEND_STATUS          WBEM_GENERIC_FLAG_TYPE = 0x80
	WBEM_FLAG_ENSURE_LOCATABLE     WBEM_GENERIC_FLAG_TYPE = 0x100
	WBEM_FLAG_DIRECT_READ          WBEM_GENERIC_FLAG_TYPE = 0x200
)

// WBEM_TIMEOUT_TYPE contains values used to specify the timeout for the IEnumWbemClassObject::Next method
type WBEM_TIMEOUT_TYPE uint32

const (
	WBEM_NO_WAIT  WBEM_TIMEOUT_TYPE = 0
	WBEM_INFINITE WBEM_TIMEOUT_TYPE = 0xFFFFFFFF
)

// WBEM_CONDITION_FLAG_TYPE contains flags used with the IWbemClassObject::GetNames method.
type WBEM_CONDITION_FLAG_TYPE uint32

const (
	WBEM_FLAG_ALWAYS         WBEM_CONDITION_FLAG_TYPE = 0
	WBEM_FLAG_ONLY_IF_TRUE   WBEM_CONDITION_FLAG_TYPE = 0x1
	WBEM_FLAG_ONLY_IF_FALSE  WBEM_CONDITION_FLAG_TYPE = 0x2
	WBEM_FLAG_KEYS_ONLY      WBEM_CONDITION_FLAG_TYPE = 0x4
	WBEM_FLAG_REFS_ONLY      WBEM_CONDITION_FLAG_TYPE = 0x8
	WBEM_FLAG_LOCAL_ONLY     WBEM_CONDITION_FLAG_TYPE = 0x10
	WBEM_FLAG_SYSTEM_ONLY    WBEM_CONDITION_FLAG_TYPE = 0x30
	WBEM_FLAG_NONSYSTEM_ONLY WBEM_CONDITION_FLAG_TYPE = 0x40
)

// IWbemLocatorVtbl is the IWbemLocator COM virtual table
type IWbemLocatorVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	ConnectServer  uintptr
}

// IWbemServicesVtbl is the IWbemServices COM virtual table
type IWbemServicesVtbl struct {
	QueryInterface             uintptr
	AddRef                     uintptr
	Release                    uintptr
	OpenNamespace              uintptr
	CancelAsyncCall            uintptr
	QueryObjectSink            uintptr
	GetObject                  uintptr
	GetObjectAsync             uintptr
	PutClass                   uintptr
	PutClassAsync              uintptr
	DeleteClass                uintptr
	DeleteClassAsync           uintptr
	CreateClassEnum            uintptr
	CreateClassEnumAsync       uintptr
	PutInstance                uintptr
	PutInstanceAsync           uintptr
	DeleteInstance             uintptr
	DeleteInstanceAsync        uintptr
	CreateInstanceEnum         uintptr
	CreateInstanceEnumAsync    uintptr
	ExecQuery                  uintptr
	ExecQueryAsync             uintptr
	ExecNotificationQuery      uintptr
	ExecNotificationQueryAsync uintptr
	ExecMethod                 uintptr
	ExecMethodAsync            uintptr
}

// IEnumWbemClassObjectVtbl is the IEnumWbemClassObject COM virtual table
type IEnumWbemClassObjectVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	Reset          uintptr
	Next           uintptr
	NextAsync      uintptr
	Clone          uintptr
	Skip           uintptr
}

// IWbemClassObjectVtbl is the IWbemClassObject COM virtual table
type IWbemClassObjectVtbl struct {
	QueryInterface          uintptr
	AddRef                  uintptr
	Release                 uintptr
	GetQualifierSet         uintptr
	Get                     uintptr
	Put                     uintptr
	Delete                  uintptr
	GetNames                uintptr
	BeginEnumeration        uintptr
	Next                    uintptr
	EndEnumeration          uintptr
	GetPropertyQualifierSet uintptr
	Clone                   uintptr
	GetObjectText           uintptr
	SpawnDerivedClass       uintptr
	SpawnInstance           uintptr
	CompareTo               uintptr
	GetPropertyOrigin       uintptr
	InheritsFrom            uintptr
	GetMethod               uintptr
	PutMethod               uintptr
	DeleteMethod            uintptr
	BeginMethodEnumeration  uintptr
	NextMethod              uintptr
	EndMethodEnumeration    uintptr
	GetMethodQualifierSet   uintptr
	GetMethodOrigin         uintptr
}

// SUCCEEDED function returns true if HRESULT succeeds, else false
func SUCCEEDED(hresult uintptr) bool {
	return int32(hresult) >= 0
}

// FAILED function returns true if HRESULT fails, else false
func FAILED(hresult uintptr) bool {
	return int32(hresult) < 0
}

// ensureComInitialized initializes the COM library and sets the process-wide
// COM security levels.  It runs once per process, triggered by the first
// request; every request still owns its own locator/services/enumerator chain.
func ensureComInitialized() bool {
	comInitOnce.Do(func() {
		// Initialize the COM library for use by our calling thread.  Handle case
		// where COM library is already initialized on this thread.
		comInitialized = true
		err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
		if err != nil {
			// If an ole.OleError error is returned, and S_OK or S_FALSE is returned,
			// then we ignore the error and continue COM initialization.
			comInitialized = false
			if oleCode, ok := err.(*ole.OleError); ok == true {
				switch oleCode.Code() {
				case S_OK, S_FALSE:
					comInitialized = true
				}
			}
			// Log error if unexpected failure occurs
			if !comInitialized {
				log.Errorf("Unable to initialize COM, err=%v", err)
				return
			}
		}

		// Set general COM security levels.  RPC_E_TOO_LATE means the process has
		// already configured security, which is not a failure for our purposes.
		hres, _, _ := procCoInitializeSecurity.Call(
			uintptr(0),
			uintptr(0xFFFFFFFF),                  // COM authentication
			uintptr(0),                           // Authentication services
			uintptr(0),                           // Reserved
			uintptr(RPC_C_AUTHN_LEVEL_DEFAULT),   // Default authentication
			uintptr(RPC_C_IMP_LEVEL_IMPERSONATE), // Default Impersonation
			uintptr(0),                           // Authentication info
			uintptr(EOAC_NONE),                   // Additional capabilities
			uintptr(0))                           // Reserved
		if FAILED(hres) && (hres != RPC_E_TOO_LATE) {
			log.Errorf("Unable to initialize COM security, err=%v", ole.NewError(hres))
		}
	})
	return comInitialized
}

// Cleanup is an optional routine that should only be called when the process using the WMI package
// is exiting.
func Cleanup() {
	lock.Lock()
	defer lock.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if comInitialized {
		ole.CoUninitialize()
		comInitialized = false
	}
}
