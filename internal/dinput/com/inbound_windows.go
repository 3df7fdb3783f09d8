//go:build windows

package com

import (
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput"
	"dinputproxy/internal/proxy"
)

// Native record mirrors. Field alignment matches the platform headers on
// both 32- and 64-bit builds because Go and the C ABI align identically here.
type (
	diDataFormat struct {
		Size     uint32
		ObjSize  uint32
		Flags    uint32
		DataSize uint32
		NumObjs  uint32
		Objects  uintptr
	}

	diObjectDataFormat struct {
		GUID  uintptr
		Ofs   uint32
		Type  uint32
		Flags uint32
	}

	diEffEscape struct {
		Size    uint32
		Command uint32
		In      uintptr
		CbIn    uint32
		Out     uintptr
		CbOut   uint32
	}

	diFileEffect struct {
		Size   uint32
		GUID   ole.GUID
		Effect uintptr
		Name   [260]byte // always ANSI, even on the wide interface
	}

	diImageInfoHeader struct {
		Size          uint32
		SizeImageInfo uint32
		Views         uint32
		Buttons       uint32
		Axes          uint32
		POVs          uint32
		BufferSize    uint32
		BufferUsed    uint32
		Array         uintptr
	}
)

// comUnknown adapts a raw object obtained through a passthrough identity
// query. Only the refcounted identity surface is usable on it.
type comUnknown struct {
	raw uintptr
}

var _ proxy.Unknown = (*comUnknown)(nil)

func (u *comUnknown) QueryInterface(iid *ole.GUID) (proxy.Unknown, error) {
	return rawQueryInterface(u.raw, iid)
}

func (u *comUnknown) AddRef() uint32 {
	return uint32(comCall(u.raw, slotAddRef))
}

func (u *comUnknown) Release() uint32 {
	return uint32(comCall(u.raw, slotRelease))
}

// rawQueryInterface performs an identity query on a raw object and adapts
// the result to the identity that was asked for.
func rawQueryInterface(raw uintptr, iid *ole.GUID) (proxy.Unknown, error) {
	var out uintptr
	hr := comCall(raw, slotQueryInterface, guidPtr(iid), uintptr(unsafe.Pointer(&out)))
	if !dinput.Succeeded(hr) {
		return nil, dinput.ErrorOf(hr)
	}
	switch {
	case ole.IsEqualGUID(iid, dinput.IIDIDirectInput8A):
		return &comFactory{raw: out, enc: encodingA}, nil
	case ole.IsEqualGUID(iid, dinput.IIDIDirectInput8W):
		return &comFactory{raw: out, enc: encodingW}, nil
	case ole.IsEqualGUID(iid, dinput.IIDIDirectInputDevice8A):
		return &comDevice{raw: out, enc: encodingA}, nil
	case ole.IsEqualGUID(iid, dinput.IIDIDirectInputDevice8W):
		return &comDevice{raw: out, enc: encodingW}, nil
	}
	return &comUnknown{raw: out}, nil
}

// comEffect adapts a created force-feedback effect.
type comEffect struct {
	raw uintptr
}

var _ proxy.Effect = (*comEffect)(nil)

func (e *comEffect) QueryInterface(iid *ole.GUID) (proxy.Unknown, error) {
	return rawQueryInterface(e.raw, iid)
}

func (e *comEffect) AddRef() uint32 {
	return uint32(comCall(e.raw, slotAddRef))
}

func (e *comEffect) Release() uint32 {
	return uint32(comCall(e.raw, slotRelease))
}

// Enumeration contexts and their static trampolines. One callback per
// enumeration shape for the whole process; the per-call closure travels
// through the opaque reference argument.
type (
	enumDevicesCtx struct {
		enc *textEncoding
		fn  proxy.EnumDevicesFunc
	}
	enumObjectsCtx struct {
		enc *textEncoding
		fn  proxy.EnumObjectsFunc
	}
	enumEffectsCtx struct {
		enc *textEncoding
		fn  proxy.EnumEffectsFunc
	}
	enumFileEffectsCtx struct {
		fn proxy.EnumFileEffectsFunc
	}
	enumCreatedCtx struct {
		fn func(proxy.Effect) bool
	}
)

var (
	enumDevicesTramp = syscall.NewCallback(func(lpddi, ref uintptr) uintptr {
		v, ok := enumCtx(ref)
		if !ok {
			return dienumStop
		}
		ctx := v.(*enumDevicesCtx)
		if ctx.fn(decodeInstance(ctx.enc, rawAt(lpddi, ctx.enc.instSize))) {
			return dienumContinue
		}
		return dienumStop
	})

	enumSemanticsTramp = syscall.NewCallback(func(lpddi, lpdid, flags, remaining, ref uintptr) uintptr {
		v, ok := enumCtx(ref)
		if !ok {
			return dienumStop
		}
		ctx := v.(*enumDevicesCtx)
		if ctx.fn(decodeInstance(ctx.enc, rawAt(lpddi, ctx.enc.instSize))) {
			return dienumContinue
		}
		return dienumStop
	})

	enumObjectsTramp = syscall.NewCallback(func(lpddoi, ref uintptr) uintptr {
		v, ok := enumCtx(ref)
		if !ok {
			return dienumStop
		}
		ctx := v.(*enumObjectsCtx)
		if ctx.fn(decodeObject(ctx.enc, rawAt(lpddoi, ctx.enc.objSize))) {
			return dienumContinue
		}
		return dienumStop
	})

	enumEffectsTramp = syscall.NewCallback(func(pdei, ref uintptr) uintptr {
		v, ok := enumCtx(ref)
		if !ok {
			return dienumStop
		}
		ctx := v.(*enumEffectsCtx)
		if ctx.fn(decodeEffectInfo(ctx.enc, rawAt(pdei, ctx.enc.effSize))) {
			return dienumContinue
		}
		return dienumStop
	})

	enumFileEffectsTramp = syscall.NewCallback(func(lpeff, ref uintptr) uintptr {
		v, ok := enumCtx(ref)
		if !ok {
			return dienumStop
		}
		ctx := v.(*enumFileEffectsCtx)
		rec := (*diFileEffect)(unsafe.Pointer(lpeff))
		if ctx.fn(dinput.FileEffect{
			GUID:         rec.GUID,
			FriendlyName: decodeNameA(rec.Name[:]),
		}) {
			return dienumContinue
		}
		return dienumStop
	})

	enumCreatedTramp = syscall.NewCallback(func(peff, ref uintptr) uintptr {
		v, ok := enumCtx(ref)
		if !ok {
			return dienumStop
		}
		ctx := v.(*enumCreatedCtx)
		if ctx.fn(&comEffect{raw: peff}) {
			return dienumContinue
		}
		return dienumStop
	})
)

// comFactory adapts a raw IDirectInput8 object to the proxy.Factory surface.
type comFactory struct {
	raw uintptr
	enc *textEncoding
}

var _ proxy.Factory = (*comFactory)(nil)

func (f *comFactory) QueryInterface(iid *ole.GUID) (proxy.Unknown, error) {
	return rawQueryInterface(f.raw, iid)
}

func (f *comFactory) AddRef() uint32 {
	return uint32(comCall(f.raw, slotAddRef))
}

func (f *comFactory) Release() uint32 {
	return uint32(comCall(f.raw, slotRelease))
}

func (f *comFactory) CreateDevice(instance *ole.GUID) (proxy.Device, error) {
	var out uintptr
	hr := comCall(f.raw, fslotCreateDevice, guidPtr(instance), uintptr(unsafe.Pointer(&out)), 0)
	if !dinput.Succeeded(hr) {
		return nil, dinput.ErrorOf(hr)
	}
	return &comDevice{raw: out, enc: f.enc}, nil
}

func (f *comFactory) EnumDevices(devType uint32, cb proxy.EnumDevicesFunc, flags uint32) error {
	id := registerEnumCtx(&enumDevicesCtx{enc: f.enc, fn: cb})
	defer dropEnumCtx(id)
	hr := comCall(f.raw, fslotEnumDevices, uintptr(devType), enumDevicesTramp, id, uintptr(flags))
	return dinput.ErrorOf(hr)
}

func (f *comFactory) GetDeviceStatus(instance *ole.GUID) error {
	return dinput.ErrorOf(comCall(f.raw, fslotGetDeviceStatus, guidPtr(instance)))
}

func (f *comFactory) RunControlPanel(owner uintptr, flags uint32) error {
	return dinput.ErrorOf(comCall(f.raw, fslotRunControlPanel, owner, uintptr(flags)))
}

func (f *comFactory) Initialize(inst uintptr, version uint32) error {
	return dinput.ErrorOf(comCall(f.raw, fslotInitialize, inst, uintptr(version)))
}

func (f *comFactory) FindDevice(class *ole.GUID, name string) (ole.GUID, error) {
	namePtr, err := f.enc.newName(name)
	if err != nil {
		return ole.GUID{}, err
	}
	var guid ole.GUID
	hr := comCall(f.raw, fslotFindDevice, guidPtr(class), uintptr(namePtr), uintptr(unsafe.Pointer(&guid)))
	runtime.KeepAlive(namePtr)
	if !dinput.Succeeded(hr) {
		return ole.GUID{}, dinput.ErrorOf(hr)
	}
	return guid, nil
}

func (f *comFactory) EnumDevicesBySemantics(userName string, format *dinput.ActionFormat, cb proxy.EnumDevicesFunc, flags uint32) error {
	var namePtr unsafe.Pointer
	if userName != "" {
		var err error
		namePtr, err = f.enc.newName(userName)
		if err != nil {
			return err
		}
	}
	var formatPtr uintptr
	if format != nil {
		formatPtr = bytesPtr(format.Raw)
	}
	id := registerEnumCtx(&enumDevicesCtx{enc: f.enc, fn: cb})
	defer dropEnumCtx(id)
	hr := comCall(f.raw, fslotEnumDevicesBySemantics, uintptr(namePtr), formatPtr, enumSemanticsTramp, id, uintptr(flags))
	runtime.KeepAlive(namePtr)
	runtime.KeepAlive(format)
	return dinput.ErrorOf(hr)
}

func (f *comFactory) ConfigureDevices(params []byte, flags uint32) error {
	hr := comCall(f.raw, fslotConfigureDevices, 0, bytesPtr(params), uintptr(flags), 0)
	return dinput.ErrorOf(hr)
}

// comDevice adapts a raw IDirectInputDevice8 object to the proxy.Device
// surface.
type comDevice struct {
	raw uintptr
	enc *textEncoding
}

var _ proxy.Device = (*comDevice)(nil)

func (d *comDevice) QueryInterface(iid *ole.GUID) (proxy.Unknown, error) {
	return rawQueryInterface(d.raw, iid)
}

func (d *comDevice) AddRef() uint32 {
	return uint32(comCall(d.raw, slotAddRef))
}

func (d *comDevice) Release() uint32 {
	return uint32(comCall(d.raw, slotRelease))
}

func (d *comDevice) GetCapabilities(caps *dinput.Capabilities) error {
	var rec struct {
		Size uint32
		dinput.Capabilities
	}
	rec.Size = uint32(unsafe.Sizeof(rec))
	hr := comCall(d.raw, dslotGetCapabilities, uintptr(unsafe.Pointer(&rec)))
	if !dinput.Succeeded(hr) {
		return dinput.ErrorOf(hr)
	}
	*caps = rec.Capabilities
	return nil
}

func (d *comDevice) EnumObjects(cb proxy.EnumObjectsFunc, flags uint32) error {
	id := registerEnumCtx(&enumObjectsCtx{enc: d.enc, fn: cb})
	defer dropEnumCtx(id)
	hr := comCall(d.raw, dslotEnumObjects, enumObjectsTramp, id, uintptr(flags))
	return dinput.ErrorOf(hr)
}

func (d *comDevice) GetProperty(prop *ole.GUID, header []byte) error {
	return dinput.ErrorOf(comCall(d.raw, dslotGetProperty, guidPtr(prop), bytesPtr(header)))
}

func (d *comDevice) SetProperty(prop *ole.GUID, header []byte) error {
	return dinput.ErrorOf(comCall(d.raw, dslotSetProperty, guidPtr(prop), bytesPtr(header)))
}

func (d *comDevice) Acquire() error {
	return dinput.ErrorOf(comCall(d.raw, dslotAcquire))
}

func (d *comDevice) Unacquire() error {
	return dinput.ErrorOf(comCall(d.raw, dslotUnacquire))
}

func (d *comDevice) GetDeviceState(buf []byte) error {
	return dinput.ErrorOf(comCall(d.raw, dslotGetDeviceState, uintptr(len(buf)), bytesPtr(buf)))
}

func (d *comDevice) GetDeviceData(objSize uint32, buf []byte, inOut *uint32, flags uint32) error {
	hr := comCall(d.raw, dslotGetDeviceData, uintptr(objSize), bytesPtr(buf),
		uintptr(unsafe.Pointer(inOut)), uintptr(flags))
	return dinput.ErrorOf(hr)
}

func (d *comDevice) SetDataFormat(format *dinput.DataFormat) error {
	objSize := uint32(unsafe.Sizeof(diObjectDataFormat{}))
	df := diDataFormat{
		ObjSize:  objSize,
		Flags:    format.Flags,
		DataSize: format.DataSize,
		NumObjs:  uint32(len(format.ObjectData)) / objSize,
		Objects:  bytesPtr(format.ObjectData),
	}
	df.Size = uint32(unsafe.Sizeof(df))
	return dinput.ErrorOf(comCall(d.raw, dslotSetDataFormat, uintptr(unsafe.Pointer(&df))))
}

func (d *comDevice) SetEventNotification(event uintptr) error {
	return dinput.ErrorOf(comCall(d.raw, dslotSetEventNotification, event))
}

func (d *comDevice) SetCooperativeLevel(window uintptr, flags uint32) error {
	return dinput.ErrorOf(comCall(d.raw, dslotSetCooperativeLevel, window, uintptr(flags)))
}

func (d *comDevice) GetObjectInfo(obj uint32, how uint32) (dinput.ObjectInstance, error) {
	buf := make([]byte, d.enc.objSize)
	*(*uint32)(unsafe.Pointer(&buf[0])) = d.enc.objSize
	hr := comCall(d.raw, dslotGetObjectInfo, bytesPtr(buf), uintptr(obj), uintptr(how))
	if !dinput.Succeeded(hr) {
		return dinput.ObjectInstance{}, dinput.ErrorOf(hr)
	}
	return decodeObject(d.enc, buf), nil
}

func (d *comDevice) GetDeviceInfo() (dinput.DeviceInstance, error) {
	buf := make([]byte, d.enc.instSize)
	*(*uint32)(unsafe.Pointer(&buf[0])) = d.enc.instSize
	hr := comCall(d.raw, dslotGetDeviceInfo, bytesPtr(buf))
	if !dinput.Succeeded(hr) {
		return dinput.DeviceInstance{}, dinput.ErrorOf(hr)
	}
	return decodeInstance(d.enc, buf), nil
}

func (d *comDevice) RunControlPanel(owner uintptr, flags uint32) error {
	return dinput.ErrorOf(comCall(d.raw, dslotRunControlPanel, owner, uintptr(flags)))
}

func (d *comDevice) Initialize(inst uintptr, version uint32, guid *ole.GUID) error {
	return dinput.ErrorOf(comCall(d.raw, dslotInitialize, inst, uintptr(version), guidPtr(guid)))
}

func (d *comDevice) CreateEffect(guid *ole.GUID, params *dinput.EffectParams) (proxy.Effect, error) {
	var raw uintptr
	if params != nil {
		raw = bytesPtr(params.Raw)
	}
	var out uintptr
	hr := comCall(d.raw, dslotCreateEffect, guidPtr(guid), raw, uintptr(unsafe.Pointer(&out)), 0)
	if !dinput.Succeeded(hr) {
		return nil, dinput.ErrorOf(hr)
	}
	return &comEffect{raw: out}, nil
}

func (d *comDevice) EnumEffects(cb proxy.EnumEffectsFunc, effType uint32) error {
	id := registerEnumCtx(&enumEffectsCtx{enc: d.enc, fn: cb})
	defer dropEnumCtx(id)
	hr := comCall(d.raw, dslotEnumEffects, enumEffectsTramp, id, uintptr(effType))
	return dinput.ErrorOf(hr)
}

func (d *comDevice) GetEffectInfo(guid *ole.GUID) (dinput.EffectInfo, error) {
	buf := make([]byte, d.enc.effSize)
	*(*uint32)(unsafe.Pointer(&buf[0])) = d.enc.effSize
	hr := comCall(d.raw, dslotGetEffectInfo, bytesPtr(buf), guidPtr(guid))
	if !dinput.Succeeded(hr) {
		return dinput.EffectInfo{}, dinput.ErrorOf(hr)
	}
	return decodeEffectInfo(d.enc, buf), nil
}

func (d *comDevice) GetForceFeedbackState() (uint32, error) {
	var state uint32
	hr := comCall(d.raw, dslotGetForceFeedbackState, uintptr(unsafe.Pointer(&state)))
	if !dinput.Succeeded(hr) {
		return 0, dinput.ErrorOf(hr)
	}
	return state, nil
}

func (d *comDevice) SendForceFeedbackCommand(flags uint32) error {
	return dinput.ErrorOf(comCall(d.raw, dslotSendForceFeedbackCommand, uintptr(flags)))
}

func (d *comDevice) EnumCreatedEffectObjects(cb func(proxy.Effect) bool, flags uint32) error {
	id := registerEnumCtx(&enumCreatedCtx{fn: cb})
	defer dropEnumCtx(id)
	hr := comCall(d.raw, dslotEnumCreatedEffectObjects, enumCreatedTramp, id, uintptr(flags))
	return dinput.ErrorOf(hr)
}

func (d *comDevice) Escape(esc *dinput.EffectEscape) error {
	rec := diEffEscape{
		Command: esc.Command,
		In:      bytesPtr(esc.InBuffer),
		CbIn:    uint32(len(esc.InBuffer)),
		Out:     bytesPtr(esc.OutBuffer),
		CbOut:   uint32(len(esc.OutBuffer)),
	}
	rec.Size = uint32(unsafe.Sizeof(rec))
	hr := comCall(d.raw, dslotEscape, uintptr(unsafe.Pointer(&rec)))
	if !dinput.Succeeded(hr) {
		return dinput.ErrorOf(hr)
	}
	esc.OutWritten = rec.CbOut
	return nil
}

func (d *comDevice) Poll() error {
	return dinput.ErrorOf(comCall(d.raw, dslotPoll))
}

func (d *comDevice) SendDeviceData(objSize uint32, buf []byte, inOut *uint32, flags uint32) error {
	hr := comCall(d.raw, dslotSendDeviceData, uintptr(objSize), bytesPtr(buf),
		uintptr(unsafe.Pointer(inOut)), uintptr(flags))
	return dinput.ErrorOf(hr)
}

func (d *comDevice) EnumEffectsInFile(fileName string, cb proxy.EnumFileEffectsFunc, flags uint32) error {
	namePtr, err := d.enc.newName(fileName)
	if err != nil {
		return err
	}
	id := registerEnumCtx(&enumFileEffectsCtx{fn: cb})
	defer dropEnumCtx(id)
	hr := comCall(d.raw, dslotEnumEffectsInFile, uintptr(namePtr), enumFileEffectsTramp, id, uintptr(flags))
	runtime.KeepAlive(namePtr)
	return dinput.ErrorOf(hr)
}

func (d *comDevice) WriteEffectToFile(fileName string, effects []dinput.FileEffect, flags uint32) error {
	namePtr, err := d.enc.newName(fileName)
	if err != nil {
		return err
	}
	recs := make([]diFileEffect, len(effects))
	for i := range effects {
		recs[i].Size = uint32(unsafe.Sizeof(recs[i]))
		recs[i].GUID = effects[i].GUID
		recs[i].Effect = bytesPtr(effects[i].Data)
		copy(recs[i].Name[:259], effects[i].FriendlyName)
	}
	var arr uintptr
	if len(recs) > 0 {
		arr = uintptr(unsafe.Pointer(&recs[0]))
	}
	hr := comCall(d.raw, dslotWriteEffectToFile, uintptr(namePtr), uintptr(len(recs)), arr, uintptr(flags))
	runtime.KeepAlive(namePtr)
	runtime.KeepAlive(recs)
	runtime.KeepAlive(effects)
	return dinput.ErrorOf(hr)
}

func (d *comDevice) BuildActionMap(format *dinput.ActionFormat, userName string, flags uint32) error {
	var namePtr unsafe.Pointer
	if userName != "" {
		var err error
		namePtr, err = d.enc.newName(userName)
		if err != nil {
			return err
		}
	}
	var formatPtr uintptr
	if format != nil {
		formatPtr = bytesPtr(format.Raw)
	}
	hr := comCall(d.raw, dslotBuildActionMap, formatPtr, uintptr(namePtr), uintptr(flags))
	runtime.KeepAlive(namePtr)
	runtime.KeepAlive(format)
	return dinput.ErrorOf(hr)
}

func (d *comDevice) SetActionMap(format *dinput.ActionFormat, userName string, flags uint32) error {
	var namePtr unsafe.Pointer
	if userName != "" {
		var err error
		namePtr, err = d.enc.newName(userName)
		if err != nil {
			return err
		}
	}
	var formatPtr uintptr
	if format != nil {
		formatPtr = bytesPtr(format.Raw)
	}
	hr := comCall(d.raw, dslotSetActionMap, formatPtr, uintptr(namePtr), uintptr(flags))
	runtime.KeepAlive(namePtr)
	runtime.KeepAlive(format)
	return dinput.ErrorOf(hr)
}

func (d *comDevice) GetImageInfo(header *dinput.ImageInfoHeader) error {
	rec := diImageInfoHeader{
		BufferSize: uint32(len(header.Raw)),
		Array:      bytesPtr(header.Raw),
	}
	rec.Size = uint32(unsafe.Sizeof(rec))
	rec.SizeImageInfo = header.SizeImageInfo
	hr := comCall(d.raw, dslotGetImageInfo, uintptr(unsafe.Pointer(&rec)))
	if !dinput.Succeeded(hr) {
		return dinput.ErrorOf(hr)
	}
	header.SizeImageInfo = rec.SizeImageInfo
	header.Views = rec.Views
	header.Buttons = rec.Buttons
	return nil
}
