// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	log "github.com/hpe-storage/common-wmi-libs/logger"
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
)

// Win32_OperatingSystem WMI class
type Win32_OperatingSystem struct {
	BootDevice              string
	BuildNumber             string
	BuildType               string
	Caption                 string
	CodeSet                 string
	CountryCode             string
	CSDVersion              string
	CSName                  string
	Description             string
	FreePhysicalMemory      uint64
	FreeSpaceInPagingFiles  uint64
	FreeVirtualMemory       uint64
	InstallDate             string
	LastBootUpTime          string
	LocalDateTime           string
	Locale                  string
	Manufacturer            string
	MaxNumberOfProcesses    uint32
	MaxProcessMemorySize    uint64
	MUILanguages            []string
	Name                    string
	NumberOfProcesses       uint32
	NumberOfUsers           uint32
	OperatingSystemSKU      uint32
	Organization            string
	OSArchitecture          string
	OSLanguage              uint32
	OSProductSuite          uint32
	OSType                  uint16
	Primary                 bool
	ProductType             uint32
	RegisteredUser          string
	SerialNumber            string
	ServicePackMajorVersion uint16
	ServicePackMinorVersion uint16
	SizeStoredInPagingFiles uint64
	Status                  string
	SuiteMask               uint32
	SystemDevice            string
	SystemDirectory         string
	SystemDrive             string
	TotalVirtualMemorySize  uint64
	TotalVisibleMemorySize  uint64
	Version                 string
	WindowsDirectory        string
}

// GetWin32OperatingSystem enumerates this host's Win32_OperatingSystem object
func GetWin32OperatingSystem() (*Win32_OperatingSystem, error) {
	log.Trace(">>>>> GetWin32OperatingSystem")
	defer log.Trace("<<<<< GetWin32OperatingSystem")

	req, err := NewWmiRequest("SELECT * FROM Win32_OperatingSystem", RootCIMV2)
	if err != nil {
		return nil, err
	}
	defer req.Close()

	results := req.Results()
	if len(results) == 0 {
		return nil, wmierrors.NewWmiError(wmierrors.QueryFailed, "No Win32_OperatingSystem object enumerated.")
	}

	operatingSystem := new(Win32_OperatingSystem)
	if err := Decode(results[0], operatingSystem); err != nil {
		return nil, err
	}
	return operatingSystem, nil
}
