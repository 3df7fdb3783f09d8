//go:build windows

// dinput8 - drop-in wrapper library. Build as a c-shared DLL named
// dinput8.dll and place it next to the host executable:
//
//	go build -buildmode=c-shared -o dinput8.dll ./cmd/dinput8
//
// The host loads it instead of the system library; every call forwards to
// the genuine copy in the system directory.
package main

/*
#include <windows.h>
*/
import "C"

import (
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput/com"
)

//export DirectInput8Create
func DirectInput8Create(hinst C.HINSTANCE, dwVersion C.DWORD, riidltf unsafe.Pointer, ppvOut unsafe.Pointer, punkOuter unsafe.Pointer) C.HRESULT {
	hr := com.Create(
		uintptr(unsafe.Pointer(hinst)),
		uint32(dwVersion),
		(*ole.GUID)(riidltf),
		(*uintptr)(ppvOut),
		uintptr(punkOuter),
	)
	return C.HRESULT(int32(uint32(hr)))
}

func main() {}
