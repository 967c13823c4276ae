// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"strings"
	"unsafe"
)

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing. Trailing bytes
// that do not fill a whole word are dropped.
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	const m = 0x7fffffff
	words := len(data) / 4
	return (*[m / 4]uint32)(unsafe.Pointer(&data[0]))[:words:words]
}

// SafeString terminates s with a NUL, as strings handed to the API must be
func SafeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// SafeStrings applies SafeString to every element
func SafeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, SafeString(s))
	}
	return safe
}
