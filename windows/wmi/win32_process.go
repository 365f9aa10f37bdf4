// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package wmi

import (
	"fmt"

	log "github.com/hpe-storage/common-wmi-libs/logger"
	"github.com/hpe-storage/common-wmi-libs/wmierrors"
)

// Win32_Process WMI class
type Win32_Process struct {
	Caption         string
	CommandLine     string
	CreationDate    string
	Description     string
	ExecutablePath  string
	HandleCount     uint32
	Name            string
	ParentProcessId uint32
	Priority        uint32
	ProcessId       uint32
	SessionId       uint32
	Status          string
	ThreadCount     uint32
	VirtualSize     uint64
	WorkingSetSize  uint64
}

// GetWin32Processes enumerates this host's Win32_Process objects.  An optional
// WQL WHERE clause (without the "WHERE" keyword) filters the enumeration.
func GetWin32Processes(whereClause string) ([]*Win32_Process, error) {
	log.Tracef(">>>>> GetWin32Processes, whereClause=%v", whereClause)
	defer log.Trace("<<<<< GetWin32Processes")

	query := "SELECT * FROM Win32_Process"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	req, err := NewWmiRequest(query, RootCIMV2)
	if err != nil {
		return nil, err
	}
	defer req.Close()

	var processes []*Win32_Process
	for _, result := range req.Results() {
		process := new(Win32_Process)
		if err := Decode(result, process); err != nil {
			return nil, err
		}
		processes = append(processes, process)
	}
	return processes, nil
}

// TerminateProcess invokes Win32_Process::Terminate on the process with the
// given PID and returns the method's ReturnValue (0 on success).
func TerminateProcess(processID uint32, reason uint32) (int32, error) {
	log.Tracef(">>>>> TerminateProcess, processID=%v, reason=%v", processID, reason)
	defer log.Trace("<<<<< TerminateProcess")

	query := fmt.Sprintf("SELECT * FROM Win32_Process WHERE ProcessId = %v", processID)
	req, err := NewWmiRequest(query, RootCIMV2)
	if err != nil {
		return 0, err
	}
	defer req.Close()

	results := req.Results()
	if len(results) == 0 {
		return 0, wmierrors.NewWmiErrorf(wmierrors.QueryFailed, "No process with PID %v.", processID)
	}

	var args WmiMethodArgs
	defer args.Release()
	if err := args.PutUint32("Reason", reason); err != nil {
		return 0, err
	}

	out, err := req.ExecMethod(results[0], "Terminate", &args)
	if err != nil {
		return 0, err
	}
	defer out.Release()

	// WMI marshals the uint32 ReturnValue out-parameter as VT_I4.
	var returnValue int32
	if err := out.GetLong("ReturnValue", &returnValue); err != nil {
		return 0, err
	}
	return returnValue, nil
}
