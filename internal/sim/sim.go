// Package sim provides a synthetic six-degrees-of-freedom controller that
// implements the proxy interfaces with COM-style reference counting. It backs
// the monitor's demo mode on platforms without the real input subsystem and
// serves as the real-object double in tests.
package sim

import (
	"sync"
	"sync/atomic"
	"time"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput"
	"dinputproxy/internal/proxy"
)

// Device is a synthetic controller. A fresh device starts with one
// outstanding reference, like a COM object handed out by its factory.
type Device struct {
	refs int32

	mu       sync.Mutex
	inst     dinput.DeviceInstance
	acquired bool
	calls    map[string]int
	start    time.Time

	// StateFunc, when set, replaces the built-in waveform generator.
	StateFunc func(buf []byte) error

	// InfoErr, when set, makes GetDeviceInfo fail with that error.
	InfoErr error
}

// NewDevice creates a synthetic device reporting the given instance
// descriptor.
func NewDevice(inst dinput.DeviceInstance) *Device {
	return &Device{
		refs:  1,
		inst:  inst,
		calls: make(map[string]int),
		start: time.Now(),
	}
}

// SixDOFInstance returns a descriptor for the targeted controller class.
func SixDOFInstance(name string) dinput.DeviceInstance {
	return dinput.DeviceInstance{
		DevType:      dinput.MakeDevType(dinput.DevTypeFirstPerson, dinput.SubTypeSixDOF),
		InstanceName: name,
		ProductName:  name,
		UsagePage:    0x01,
		Usage:        0x04,
	}
}

// Refs returns the current reference count.
func (d *Device) Refs() uint32 {
	return uint32(atomic.LoadInt32(&d.refs))
}

// Calls returns how many times the named operation was invoked.
func (d *Device) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

func (d *Device) record(op string) {
	d.mu.Lock()
	d.calls[op]++
	d.mu.Unlock()
}

// QueryInterface resolves the device and unknown identities to the device
// itself; anything else is unsupported.
func (d *Device) QueryInterface(iid *ole.GUID) (proxy.Unknown, error) {
	d.record("QueryInterface")
	if ole.IsEqualGUID(iid, dinput.IIDIUnknown) ||
		ole.IsEqualGUID(iid, dinput.IIDIDirectInputDevice8A) ||
		ole.IsEqualGUID(iid, dinput.IIDIDirectInputDevice8W) {
		d.AddRef()
		return d, nil
	}
	return nil, ole.NewError(dinput.ENoInterface)
}

// AddRef increments and returns the reference count.
func (d *Device) AddRef() uint32 {
	return uint32(atomic.AddInt32(&d.refs, 1))
}

// Release decrements and returns the reference count.
func (d *Device) Release() uint32 {
	return uint32(atomic.AddInt32(&d.refs, -1))
}

// State returns the waveform sample for the given elapsed time. Axis values
// are deterministic triangle waves with per-axis periods so suppression is
// visible against known non-zero inputs.
func State(elapsed time.Duration) dinput.JoyState {
	ms := elapsed.Milliseconds()
	tri := func(period int64, amplitude int32) int32 {
		if period <= 0 {
			return 0
		}
		phase := ms % period
		half := period / 2
		if phase < half {
			return int32(phase * int64(amplitude) / half)
		}
		return int32((period - phase) * int64(amplitude) / half)
	}
	s := dinput.JoyState{
		X:    tri(2000, 1000) - 500,
		Y:    tri(1700, 1000) - 500,
		Z:    tri(1300, 1000) - 500,
		RotX: tri(900, 1000) - 500,
		RotY: tri(700, 1000) - 500,
		RotZ: tri(500, 1000) - 500,
		POV:  0xFFFFFFFF,
	}
	s.Slider[0] = tri(1100, 1000) - 500
	s.Slider[1] = tri(600, 1000) - 500
	for i := range s.Buttons {
		if (ms/250+int64(i))%4 == 0 {
			s.Buttons[i] = 0x80
		}
	}
	return s
}

// GetDeviceState fills the caller's buffer. Recognized-size buffers get the
// waveform state; any other size gets a deterministic byte pattern so
// passthrough can be verified byte for byte.
func (d *Device) GetDeviceState(buf []byte) error {
	d.record("GetDeviceState")
	if d.StateFunc != nil {
		return d.StateFunc(buf)
	}
	if len(buf) == dinput.JoyStateSize {
		s := State(time.Since(d.start))
		copy(buf, dinput.EncodeJoyState(&s))
		return nil
	}
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}
	return nil
}

// GetDeviceInfo reports the configured instance descriptor.
func (d *Device) GetDeviceInfo() (dinput.DeviceInstance, error) {
	d.record("GetDeviceInfo")
	if d.InfoErr != nil {
		return dinput.DeviceInstance{}, d.InfoErr
	}
	return d.inst, nil
}

// Acquire marks the device acquired.
func (d *Device) Acquire() error {
	d.record("Acquire")
	d.mu.Lock()
	d.acquired = true
	d.mu.Unlock()
	return nil
}

// Unacquire clears the acquired state.
func (d *Device) Unacquire() error {
	d.record("Unacquire")
	d.mu.Lock()
	d.acquired = false
	d.mu.Unlock()
	return nil
}

// The remaining operations only record the call; the proxy forwards them
// without inspection and the simulator has no behavior to attach.

func (d *Device) GetCapabilities(caps *dinput.Capabilities) error {
	d.record("GetCapabilities")
	caps.DevType = d.inst.DevType
	caps.Axes = 6
	caps.Buttons = 12
	caps.POVs = 1
	return nil
}

func (d *Device) EnumObjects(cb proxy.EnumObjectsFunc, flags uint32) error {
	d.record("EnumObjects")
	names := []string{"X", "Y", "Z", "RotX", "RotY", "RotZ"}
	for i, n := range names {
		if !cb(dinput.ObjectInstance{Ofs: uint32(i * 4), Name: n}) {
			break
		}
	}
	return nil
}

func (d *Device) GetProperty(prop *ole.GUID, header []byte) error {
	d.record("GetProperty")
	return nil
}

func (d *Device) SetProperty(prop *ole.GUID, header []byte) error {
	d.record("SetProperty")
	return nil
}

func (d *Device) GetDeviceData(objSize uint32, buf []byte, inOut *uint32, flags uint32) error {
	d.record("GetDeviceData")
	if inOut != nil {
		*inOut = 0
	}
	return nil
}

func (d *Device) SetDataFormat(format *dinput.DataFormat) error {
	d.record("SetDataFormat")
	return nil
}

func (d *Device) SetEventNotification(event uintptr) error {
	d.record("SetEventNotification")
	return nil
}

func (d *Device) SetCooperativeLevel(window uintptr, flags uint32) error {
	d.record("SetCooperativeLevel")
	return nil
}

func (d *Device) GetObjectInfo(obj uint32, how uint32) (dinput.ObjectInstance, error) {
	d.record("GetObjectInfo")
	return dinput.ObjectInstance{Ofs: obj}, nil
}

func (d *Device) RunControlPanel(owner uintptr, flags uint32) error {
	d.record("RunControlPanel")
	return nil
}

func (d *Device) Initialize(inst uintptr, version uint32, guid *ole.GUID) error {
	d.record("Initialize")
	return nil
}

func (d *Device) CreateEffect(guid *ole.GUID, params *dinput.EffectParams) (proxy.Effect, error) {
	d.record("CreateEffect")
	return &Effect{refs: 1}, nil
}

func (d *Device) EnumEffects(cb proxy.EnumEffectsFunc, effType uint32) error {
	d.record("EnumEffects")
	return nil
}

func (d *Device) GetEffectInfo(guid *ole.GUID) (dinput.EffectInfo, error) {
	d.record("GetEffectInfo")
	return dinput.EffectInfo{GUID: *guid}, nil
}

func (d *Device) GetForceFeedbackState() (uint32, error) {
	d.record("GetForceFeedbackState")
	return 0, nil
}

func (d *Device) SendForceFeedbackCommand(flags uint32) error {
	d.record("SendForceFeedbackCommand")
	return nil
}

func (d *Device) EnumCreatedEffectObjects(cb func(proxy.Effect) bool, flags uint32) error {
	d.record("EnumCreatedEffectObjects")
	return nil
}

func (d *Device) Escape(esc *dinput.EffectEscape) error {
	d.record("Escape")
	return nil
}

func (d *Device) Poll() error {
	d.record("Poll")
	return nil
}

func (d *Device) SendDeviceData(objSize uint32, buf []byte, inOut *uint32, flags uint32) error {
	d.record("SendDeviceData")
	return nil
}

func (d *Device) EnumEffectsInFile(fileName string, cb proxy.EnumFileEffectsFunc, flags uint32) error {
	d.record("EnumEffectsInFile")
	return nil
}

func (d *Device) WriteEffectToFile(fileName string, effects []dinput.FileEffect, flags uint32) error {
	d.record("WriteEffectToFile")
	return nil
}

func (d *Device) BuildActionMap(format *dinput.ActionFormat, userName string, flags uint32) error {
	d.record("BuildActionMap")
	return nil
}

func (d *Device) SetActionMap(format *dinput.ActionFormat, userName string, flags uint32) error {
	d.record("SetActionMap")
	return nil
}

func (d *Device) GetImageInfo(header *dinput.ImageInfoHeader) error {
	d.record("GetImageInfo")
	return nil
}

// Effect is an inert refcounted effect object.
type Effect struct {
	refs int32
}

func (e *Effect) QueryInterface(iid *ole.GUID) (proxy.Unknown, error) {
	return nil, ole.NewError(dinput.ENoInterface)
}

func (e *Effect) AddRef() uint32 {
	return uint32(atomic.AddInt32(&e.refs, 1))
}

func (e *Effect) Release() uint32 {
	return uint32(atomic.AddInt32(&e.refs, -1))
}

var (
	_ proxy.Device = (*Device)(nil)
	_ proxy.Effect = (*Effect)(nil)
)
