// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// wmiquery executes a single WQL query and prints the enumerated properties
// as a table.  It exists to exercise the wmi package end to end on a real
// host; the package itself carries the unit coverage.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/hpe-storage/common-wmi-libs/logger"
)

func main() {
	query := flag.String("query", "SELECT * FROM Win32_OperatingSystem", "WQL query to execute")
	namespace := flag.String("namespace", "", `WMI namespace (default ROOT\CIMV2)`)
	logFile := flag.String("log", "wmiquery.log", "log file name")
	trace := flag.Bool("trace", false, "report traces to a local jaeger agent")
	flag.Parse()

	if err := log.InitLogging(*logFile, nil, true); err != nil {
		fmt.Fprintf(os.Stderr, "unable to initialize logging: %v\n", err)
		os.Exit(1)
	}

	if *trace {
		closer, err := log.InitTracing("wmiquery")
		if err != nil {
			log.Errorf("unable to initialize tracing, err=%v", err)
		} else {
			defer closer.Close()
		}
	}

	if err := runQuery(*query, *namespace); err != nil {
		log.Errorf("query failed, err=%v", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
