//go:build windows

// Package com binds the portable proxy layer to the native COM surface. The
// inbound half makes real factory and device objects usable through the
// proxy interfaces by calling raw vtable slots; the outbound half exposes a
// wrapped object back to native callers with a generated vtable that
// forwards every slot except the interposed ones.
package com

import (
	"sync"
	"sync/atomic"
	"syscall"
	"unicode/utf16"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"dinputproxy/internal/dinput"
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// Shared IUnknown slots.
const (
	slotQueryInterface = 0
	slotAddRef         = 1
	slotRelease        = 2
)

// IDirectInput8 vtable slots.
const (
	fslotCreateDevice           = 3
	fslotEnumDevices            = 4
	fslotGetDeviceStatus        = 5
	fslotRunControlPanel        = 6
	fslotInitialize             = 7
	fslotFindDevice             = 8
	fslotEnumDevicesBySemantics = 9
	fslotConfigureDevices       = 10

	factorySlots = 11
)

// IDirectInputDevice8 vtable slots.
const (
	dslotGetCapabilities          = 3
	dslotEnumObjects              = 4
	dslotGetProperty              = 5
	dslotSetProperty              = 6
	dslotAcquire                  = 7
	dslotUnacquire                = 8
	dslotGetDeviceState           = 9
	dslotGetDeviceData            = 10
	dslotSetDataFormat            = 11
	dslotSetEventNotification     = 12
	dslotSetCooperativeLevel      = 13
	dslotGetObjectInfo            = 14
	dslotGetDeviceInfo            = 15
	dslotRunControlPanel          = 16
	dslotInitialize               = 17
	dslotCreateEffect             = 18
	dslotEnumEffects              = 19
	dslotGetEffectInfo            = 20
	dslotGetForceFeedbackState    = 21
	dslotSendForceFeedbackCommand = 22
	dslotEnumCreatedEffectObjects = 23
	dslotEscape                   = 24
	dslotPoll                     = 25
	dslotSendDeviceData           = 26
	dslotEnumEffectsInFile        = 27
	dslotWriteEffectToFile        = 28
	dslotBuildActionMap           = 29
	dslotSetActionMap             = 30
	dslotGetImageInfo             = 31

	deviceSlots = 32
)

// Enumeration callback results.
const (
	dienumStop     = 0
	dienumContinue = 1
)

// comCall invokes a vtable slot on a raw COM object.
func comCall(obj uintptr, slot int, args ...uintptr) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*ptrSize))
	full := make([]uintptr, 0, len(args)+1)
	full = append(full, obj)
	full = append(full, args...)
	r, _, _ := syscall.SyscallN(fn, full...)
	return r
}

func bytesPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func guidPtr(g *ole.GUID) uintptr {
	return uintptr(unsafe.Pointer(g))
}

// textEncoding captures everything that differs between the ANSI and wide
// variants of the interfaces: identity, record sizes and the name fields.
type textEncoding struct {
	factoryIID *ole.GUID
	deviceIID  *ole.GUID

	nameBytes uint32 // byte length of one fixed name field

	// DIDEVICEINSTANCE
	instSize         uint32
	instUsagePageOff uint32

	// DIDEVICEOBJECTINSTANCE
	objSize         uint32
	objUsagePageOff uint32

	// DIEFFECTINFO
	effSize uint32

	decodeName func(b []byte) string

	// newName returns a pointer rather than a uintptr so the allocation
	// stays reachable until the caller's KeepAlive after the vtable call.
	newName func(s string) (unsafe.Pointer, error)
}

var encodingA = &textEncoding{
	factoryIID:       dinput.IIDIDirectInput8A,
	deviceIID:        dinput.IIDIDirectInputDevice8A,
	nameBytes:        260,
	instSize:         580,
	instUsagePageOff: 576,
	objSize:          316,
	objUsagePageOff:  304,
	effSize:          292,
	decodeName:       decodeNameA,
	newName:          newNameA,
}

var encodingW = &textEncoding{
	factoryIID:       dinput.IIDIDirectInput8W,
	deviceIID:        dinput.IIDIDirectInputDevice8W,
	nameBytes:        520,
	instSize:         1100,
	instUsagePageOff: 1096,
	objSize:          576,
	objUsagePageOff:  564,
	effSize:          552,
	decodeName:       decodeNameW,
	newName:          newNameW,
}

// encodingFor maps a requested factory identity to its text encoding, or nil
// for identities the wrapper does not interpose on.
func encodingFor(iid *ole.GUID) *textEncoding {
	switch {
	case ole.IsEqualGUID(iid, dinput.IIDIDirectInput8A):
		return encodingA
	case ole.IsEqualGUID(iid, dinput.IIDIDirectInput8W):
		return encodingW
	}
	return nil
}

func decodeNameA(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func decodeNameW(b []byte) string {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		c := uint16(b[i]) | uint16(b[i+1])<<8
		if c == 0 {
			break
		}
		u = append(u, c)
	}
	return string(utf16.Decode(u))
}

func newNameA(s string) (unsafe.Pointer, error) {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0]), nil
}

func newNameW(s string) (unsafe.Pointer, error) {
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(p), nil
}

func guidAt(b []byte) ole.GUID {
	return *(*ole.GUID)(unsafe.Pointer(&b[0]))
}

func u32At(b []byte) uint32 {
	return *(*uint32)(unsafe.Pointer(&b[0]))
}

func u16At(b []byte) uint16 {
	return *(*uint16)(unsafe.Pointer(&b[0]))
}

// decodeInstance parses a raw DIDEVICEINSTANCE record.
func decodeInstance(enc *textEncoding, b []byte) dinput.DeviceInstance {
	n := enc.nameBytes
	return dinput.DeviceInstance{
		InstanceGUID: guidAt(b[4:]),
		ProductGUID:  guidAt(b[20:]),
		DevType:      u32At(b[36:]),
		InstanceName: enc.decodeName(b[40 : 40+n]),
		ProductName:  enc.decodeName(b[40+n : 40+2*n]),
		UsagePage:    u16At(b[enc.instUsagePageOff:]),
		Usage:        u16At(b[enc.instUsagePageOff+2:]),
	}
}

// decodeObject parses a raw DIDEVICEOBJECTINSTANCE record.
func decodeObject(enc *textEncoding, b []byte) dinput.ObjectInstance {
	return dinput.ObjectInstance{
		GUIDType:  guidAt(b[4:]),
		Ofs:       u32At(b[20:]),
		Type:      u32At(b[24:]),
		Flags:     u32At(b[28:]),
		Name:      enc.decodeName(b[32 : 32+enc.nameBytes]),
		UsagePage: u16At(b[enc.objUsagePageOff:]),
		Usage:     u16At(b[enc.objUsagePageOff+2:]),
	}
}

// decodeEffectInfo parses a raw DIEFFECTINFO record.
func decodeEffectInfo(enc *textEncoding, b []byte) dinput.EffectInfo {
	return dinput.EffectInfo{
		GUID:          guidAt(b[4:]),
		EffType:       u32At(b[20:]),
		StaticParams:  u32At(b[24:]),
		DynamicParams: u32At(b[28:]),
		Name:          enc.decodeName(b[32 : 32+enc.nameBytes]),
	}
}

// rawAt views native memory as a byte slice.
func rawAt(p uintptr, n uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}

// Enumeration contexts cross the native boundary as opaque reference values.
// Static trampolines look the Go closure up by that value, so no callback is
// ever created per enumeration (the process-wide callback budget is small).
var (
	enumSeq  atomic.Uintptr
	enumCtxs sync.Map // uintptr -> interface{}
)

func registerEnumCtx(ctx interface{}) uintptr {
	id := enumSeq.Add(1)
	enumCtxs.Store(id, ctx)
	return id
}

func dropEnumCtx(id uintptr) {
	enumCtxs.Delete(id)
}

func enumCtx(id uintptr) (interface{}, bool) {
	return enumCtxs.Load(id)
}
