// (c) Copyright 2022 Hewlett Packard Enterprise Development LP

package stringformat

import (
	"fmt"
	"strings"
)

// AlignmentType enumerates the supported fixed length string alignments
type AlignmentType int

const (
	LeftAlign AlignmentType = iota
	RightAlign
	CenterAlign
)

// FixedLengthString formats the given value into a string of exactly the given
// length.  Longer values are truncated, shorter values are padded with spaces
// per the requested alignment.
func FixedLengthString(length int, value interface{}, align AlignmentType) string {
	text := fmt.Sprintf("%v", value)
	if len(text) >= length {
		return text[:length]
	}

	pad := length - len(text)
	switch align {
	case RightAlign:
		return strings.Repeat(" ", pad) + text
	case CenterAlign:
		left := pad / 2
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", pad-left)
	default:
		return text + strings.Repeat(" ", pad)
	}
}

// StringLookup returns true if the given value matches the input string, or is
// a member of the input string slice.
func StringLookup(input interface{}, value string) bool {
	switch v := input.(type) {
	case string:
		return v == value
	case []string:
		for _, entry := range v {
			if entry == value {
				return true
			}
		}
	}
	return false
}
