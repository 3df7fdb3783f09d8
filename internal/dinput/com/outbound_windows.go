//go:build windows

package com

import (
	"sync"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput"
	"dinputproxy/internal/proxy"
)

// shimObject is the record native callers hold a pointer to. Only the vtable
// pointer matters to them; everything else about the wrapper lives in the
// registry entry keyed by this object's address.
type shimObject struct {
	lpVtbl *uintptr
}

// shimState is the Go side of one outbound object.
type shimState struct {
	self    *shimObject
	inner   uintptr // raw real object, for passthrough slots
	enc     *textEncoding
	iid     *ole.GUID
	factory *proxy.FactoryProxy // exactly one of factory/device is set
	device  *proxy.DeviceProxy
}

var shims sync.Map // uintptr(this) -> *shimState

func shimFor(this uintptr) (*shimState, bool) {
	v, ok := shims.Load(this)
	if !ok {
		return nil, false
	}
	return v.(*shimState), true
}

// newShim allocates an outbound object over a prebuilt vtable and registers
// it. The registry reference keeps the object reachable until teardown.
func newShim(vtbl *uintptr, st *shimState) uintptr {
	obj := &shimObject{lpVtbl: vtbl}
	st.self = obj
	this := uintptr(unsafe.Pointer(obj))
	shims.Store(this, st)
	return this
}

func dropShim(this uintptr) {
	shims.Delete(this)
}

// forward relays a non-interposed slot to the real object unchanged.
func forward(this uintptr, slot int, args ...uintptr) uintptr {
	st, ok := shimFor(this)
	if !ok {
		return dinput.EPointer
	}
	return comCall(st.inner, slot, args...)
}

// fwdSlot builds one passthrough vtable entry for a slot of the given arity.
func fwdSlot(slot, nargs int) uintptr {
	switch nargs {
	case 0:
		return syscall.NewCallback(func(this uintptr) uintptr {
			return forward(this, slot)
		})
	case 1:
		return syscall.NewCallback(func(this, a uintptr) uintptr {
			return forward(this, slot, a)
		})
	case 2:
		return syscall.NewCallback(func(this, a, b uintptr) uintptr {
			return forward(this, slot, a, b)
		})
	case 3:
		return syscall.NewCallback(func(this, a, b, c uintptr) uintptr {
			return forward(this, slot, a, b, c)
		})
	case 4:
		return syscall.NewCallback(func(this, a, b, c, d uintptr) uintptr {
			return forward(this, slot, a, b, c, d)
		})
	case 5:
		return syscall.NewCallback(func(this, a, b, c, d, e uintptr) uintptr {
			return forward(this, slot, a, b, c, d, e)
		})
	}
	panic("com: unsupported slot arity")
}

// unknown returns the proxied identity surface of either wrapper kind.
func (st *shimState) unknown() proxy.Unknown {
	if st.factory != nil {
		return st.factory
	}
	return st.device
}

// Interposed IUnknown slots, shared by both vtables.

func shimQueryInterface(this, riid, ppv uintptr) uintptr {
	st, ok := shimFor(this)
	if !ok || ppv == 0 {
		return dinput.EPointer
	}
	iid := (*ole.GUID)(unsafe.Pointer(riid))
	if ole.IsEqualGUID(iid, st.iid) || ole.IsEqualGUID(iid, dinput.IIDIUnknown) {
		st.unknown().AddRef()
		*(*uintptr)(unsafe.Pointer(ppv)) = this
		return dinput.SOK
	}
	// Foreign identity: the real object answers, unwrapped
	return comCall(st.inner, slotQueryInterface, riid, ppv)
}

func shimAddRef(this uintptr) uintptr {
	st, ok := shimFor(this)
	if !ok {
		return 0
	}
	return uintptr(st.unknown().AddRef())
}

func shimRelease(this uintptr) uintptr {
	st, ok := shimFor(this)
	if !ok {
		return 0
	}
	// Wrapper teardown happens through the proxy's OnDestroy hook
	return uintptr(st.unknown().Release())
}

// shimCreateDevice routes device creation through the factory proxy, which
// decides whether the result goes back wrapped.
func shimCreateDevice(this, rguid, ppDevice, pUnkOuter uintptr) uintptr {
	st, ok := shimFor(this)
	if !ok {
		return dinput.EPointer
	}
	if pUnkOuter != 0 {
		// Aggregation requests go to the real factory verbatim
		return comCall(st.inner, fslotCreateDevice, rguid, ppDevice, pUnkOuter)
	}
	if ppDevice == 0 {
		return dinput.EPointer
	}

	dev, err := st.factory.CreateDevice((*ole.GUID)(unsafe.Pointer(rguid)))
	if err != nil {
		*(*uintptr)(unsafe.Pointer(ppDevice)) = 0
		return dinput.ResultOf(err)
	}

	switch d := dev.(type) {
	case *proxy.DeviceProxy:
		inner := d.Inner().(*comDevice)
		devThis := newShim(&deviceVtbl()[0], &shimState{
			inner:  inner.raw,
			enc:    st.enc,
			iid:    st.enc.deviceIID,
			device: d,
		})
		d.OnDestroy = func() { dropShim(devThis) }
		*(*uintptr)(unsafe.Pointer(ppDevice)) = devThis
	case *comDevice:
		*(*uintptr)(unsafe.Pointer(ppDevice)) = d.raw
	default:
		*(*uintptr)(unsafe.Pointer(ppDevice)) = 0
		return dinput.EFail
	}
	return dinput.SOK
}

// shimGetDeviceState routes the state fill through the device proxy so the
// rotational axes get rewritten on recognized buffers.
func shimGetDeviceState(this, cbData, lpvData uintptr) uintptr {
	st, ok := shimFor(this)
	if !ok {
		return dinput.EPointer
	}
	if lpvData == 0 {
		return dinput.EPointer
	}
	return dinput.ResultOf(st.device.GetDeviceState(rawAt(lpvData, uint32(cbData))))
}

// Vtables are built once and shared by every outbound object of the same
// kind; per-object behavior is looked up through the registry.
var (
	vtblOnce    sync.Once
	factorySlab [factorySlots]uintptr
	deviceSlab  [deviceSlots]uintptr
)

func buildVtbls() {
	factorySlab[slotQueryInterface] = syscall.NewCallback(shimQueryInterface)
	factorySlab[slotAddRef] = syscall.NewCallback(shimAddRef)
	factorySlab[slotRelease] = syscall.NewCallback(shimRelease)
	factorySlab[fslotCreateDevice] = syscall.NewCallback(shimCreateDevice)
	for slot, nargs := range map[int]int{
		fslotEnumDevices:            4,
		fslotGetDeviceStatus:        1,
		fslotRunControlPanel:        2,
		fslotInitialize:             2,
		fslotFindDevice:             3,
		fslotEnumDevicesBySemantics: 5,
		fslotConfigureDevices:       4,
	} {
		factorySlab[slot] = fwdSlot(slot, nargs)
	}

	deviceSlab[slotQueryInterface] = syscall.NewCallback(shimQueryInterface)
	deviceSlab[slotAddRef] = syscall.NewCallback(shimAddRef)
	deviceSlab[slotRelease] = syscall.NewCallback(shimRelease)
	deviceSlab[dslotGetDeviceState] = syscall.NewCallback(shimGetDeviceState)
	for slot, nargs := range map[int]int{
		dslotGetCapabilities:          1,
		dslotEnumObjects:              3,
		dslotGetProperty:              2,
		dslotSetProperty:              2,
		dslotAcquire:                  0,
		dslotUnacquire:                0,
		dslotGetDeviceData:            4,
		dslotSetDataFormat:            1,
		dslotSetEventNotification:     1,
		dslotSetCooperativeLevel:      2,
		dslotGetObjectInfo:            3,
		dslotGetDeviceInfo:            1,
		dslotRunControlPanel:          2,
		dslotInitialize:               3,
		dslotCreateEffect:             4,
		dslotEnumEffects:              3,
		dslotGetEffectInfo:            2,
		dslotGetForceFeedbackState:    1,
		dslotSendForceFeedbackCommand: 1,
		dslotEnumCreatedEffectObjects: 3,
		dslotEscape:                   1,
		dslotPoll:                     0,
		dslotSendDeviceData:           4,
		dslotEnumEffectsInFile:        4,
		dslotWriteEffectToFile:        4,
		dslotBuildActionMap:           3,
		dslotSetActionMap:             3,
		dslotGetImageInfo:             1,
	} {
		deviceSlab[slot] = fwdSlot(slot, nargs)
	}
}

func factoryVtbl() *[factorySlots]uintptr {
	vtblOnce.Do(buildVtbls)
	return &factorySlab
}

func deviceVtbl() *[deviceSlots]uintptr {
	vtblOnce.Do(buildVtbls)
	return &deviceSlab
}

// newFactoryShim exposes a wrapped factory back to native callers.
func newFactoryShim(fp *proxy.FactoryProxy, innerRaw uintptr, enc *textEncoding) uintptr {
	this := newShim(&factoryVtbl()[0], &shimState{
		inner:   innerRaw,
		enc:     enc,
		iid:     enc.factoryIID,
		factory: fp,
	})
	fp.OnDestroy = func() { dropShim(this) }
	return this
}
