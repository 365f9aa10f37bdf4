// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build windows

package main

import (
	"fmt"
	"sort"

	"github.com/hpe-storage/common-wmi-libs/stringformat"
	"github.com/hpe-storage/common-wmi-libs/windows/wmi"
)

const (
	nameColumnWidth  = 40
	valueColumnWidth = 80
)

// runQuery executes the WQL query and prints each enumerated object's
// properties as a two column table.
func runQuery(query string, namespace string) error {
	req, err := wmi.NewWmiRequest(query, namespace)
	if err != nil {
		return err
	}
	defer req.Close()

	for index, result := range req.Results() {
		properties, err := result.Properties()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(properties))
		for name := range properties {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Printf("--- Object %v ---\n", index)
		for _, name := range names {
			fmt.Printf("%v %v\n",
				stringformat.FixedLengthString(nameColumnWidth, name, stringformat.LeftAlign),
				stringformat.FixedLengthString(valueColumnWidth, properties[name], stringformat.LeftAlign))
		}
	}
	fmt.Printf("%v object(s) enumerated\n", len(req.Results()))
	return nil
}
