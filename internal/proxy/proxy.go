// Package proxy implements the transparent forwarding proxies that stand in
// for the input factory and its devices. Every operation forwards to the
// wrapped real object; the factory interposes only on device creation (to
// decide whether the new device gets wrapped) and the device interposes only
// on state retrieval (to zero the rotational axes). Neither proxy holds locks
// of its own: thread-safety is whatever the real implementation provides.
package proxy

import (
	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput"
)

// Unknown is the shared reference-counted identity surface. AddRef and
// Release return the reference count reported by the object after the
// operation, mirroring the platform convention.
type Unknown interface {
	QueryInterface(iid *ole.GUID) (Unknown, error)
	AddRef() uint32
	Release() uint32
}

// EnumDevicesFunc receives one device descriptor per enumerated device.
// Returning false stops the enumeration.
type EnumDevicesFunc func(inst dinput.DeviceInstance) bool

// EnumObjectsFunc receives one object descriptor per enumerated input object.
type EnumObjectsFunc func(obj dinput.ObjectInstance) bool

// EnumEffectsFunc receives one effect descriptor per enumerated effect.
type EnumEffectsFunc func(info dinput.EffectInfo) bool

// EnumFileEffectsFunc receives one effect per entry in an effect file.
type EnumFileEffectsFunc func(eff dinput.FileEffect) bool

// Factory is the device enumeration and creation surface (IDirectInput8).
type Factory interface {
	Unknown

	CreateDevice(instance *ole.GUID) (Device, error)
	EnumDevices(devType uint32, cb EnumDevicesFunc, flags uint32) error
	GetDeviceStatus(instance *ole.GUID) error
	RunControlPanel(owner uintptr, flags uint32) error
	Initialize(inst uintptr, version uint32) error
	FindDevice(class *ole.GUID, name string) (ole.GUID, error)
	EnumDevicesBySemantics(userName string, format *dinput.ActionFormat, cb EnumDevicesFunc, flags uint32) error
	ConfigureDevices(params []byte, flags uint32) error
}

// Effect is a created force-feedback effect. The proxy never inspects
// effects; they pass through as opaque refcounted objects.
type Effect interface {
	Unknown
}

// Device is the full per-device operation surface (IDirectInputDevice8).
// GetDeviceState is the single interposed operation; everything else is pure
// forwarding.
type Device interface {
	Unknown

	GetCapabilities(caps *dinput.Capabilities) error
	EnumObjects(cb EnumObjectsFunc, flags uint32) error
	GetProperty(prop *ole.GUID, header []byte) error
	SetProperty(prop *ole.GUID, header []byte) error
	Acquire() error
	Unacquire() error
	GetDeviceState(buf []byte) error
	GetDeviceData(objSize uint32, buf []byte, inOut *uint32, flags uint32) error
	SetDataFormat(format *dinput.DataFormat) error
	SetEventNotification(event uintptr) error
	SetCooperativeLevel(window uintptr, flags uint32) error
	GetObjectInfo(obj uint32, how uint32) (dinput.ObjectInstance, error)
	GetDeviceInfo() (dinput.DeviceInstance, error)
	RunControlPanel(owner uintptr, flags uint32) error
	Initialize(inst uintptr, version uint32, guid *ole.GUID) error
	CreateEffect(guid *ole.GUID, params *dinput.EffectParams) (Effect, error)
	EnumEffects(cb EnumEffectsFunc, effType uint32) error
	GetEffectInfo(guid *ole.GUID) (dinput.EffectInfo, error)
	GetForceFeedbackState() (uint32, error)
	SendForceFeedbackCommand(flags uint32) error
	EnumCreatedEffectObjects(cb func(Effect) bool, flags uint32) error
	Escape(esc *dinput.EffectEscape) error
	Poll() error
	SendDeviceData(objSize uint32, buf []byte, inOut *uint32, flags uint32) error
	EnumEffectsInFile(fileName string, cb EnumFileEffectsFunc, flags uint32) error
	WriteEffectToFile(fileName string, effects []dinput.FileEffect, flags uint32) error
	BuildActionMap(format *dinput.ActionFormat, userName string, flags uint32) error
	SetActionMap(format *dinput.ActionFormat, userName string, flags uint32) error
	GetImageInfo(header *dinput.ImageInfoHeader) error
}
