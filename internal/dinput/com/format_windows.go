//go:build windows

package com

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"dinputproxy/internal/dinput"
	"dinputproxy/internal/proxy"
	"dinputproxy/internal/sysdll"
)

// Data format constants for the fixed state layout.
const (
	didfAbsAxis = 0x00000001

	didftAxis        = 0x00000003
	didftButton      = 0x0000000C
	didftPOV         = 0x00000010
	didftAnyInstance = 0x00FFFF00
	didftOptional    = 0x80000000
)

// JoyDataFormat describes the fixed 48-byte state layout as an object data
// format. Objects match by type only (wildcard instance, no GUID), so the
// format binds to any stick-like device.
func JoyDataFormat() *dinput.DataFormat {
	axis := uint32(didftOptional | didftAnyInstance | didftAxis)
	pov := uint32(didftOptional | didftAnyInstance | didftPOV)
	button := uint32(didftOptional | didftAnyInstance | didftButton)

	var entries []diObjectDataFormat
	for _, ofs := range []uint32{0, 4, 8, 12, 16, 20, 24, 28} {
		entries = append(entries, diObjectDataFormat{Ofs: ofs, Type: axis})
	}
	entries = append(entries, diObjectDataFormat{Ofs: 32, Type: pov})
	for i := uint32(0); i < 12; i++ {
		entries = append(entries, diObjectDataFormat{Ofs: 36 + i, Type: button})
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&entries[0])),
		len(entries)*int(unsafe.Sizeof(entries[0])))
	return &dinput.DataFormat{
		Flags:      didfAbsAxis,
		DataSize:   dinput.JoyStateSize,
		ObjectData: append([]byte(nil), raw...),
	}
}

// SystemFactory opens an unwrapped factory on the genuine library. Used by
// in-process tooling that wants to talk to real devices directly rather
// than stand between a game and the library.
func SystemFactory(version uint32) (proxy.Factory, error) {
	addr, err := sysdll.DirectInput8Create()
	if err != nil {
		return nil, err
	}
	var h windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, nil, &h); err != nil {
		return nil, err
	}
	var raw uintptr
	hr, _, _ := syscall.SyscallN(addr, uintptr(h), uintptr(version),
		guidPtr(dinput.IIDIDirectInput8A), uintptr(unsafe.Pointer(&raw)), 0)
	if !dinput.Succeeded(hr) {
		return nil, dinput.ErrorOf(hr)
	}
	return &comFactory{raw: raw, enc: encodingA}, nil
}
