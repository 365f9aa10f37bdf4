// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

// +build !windows

package main

import (
	"errors"
)

func runQuery(query string, namespace string) error {
	return errors.New("WMI queries are only supported on Windows")
}
