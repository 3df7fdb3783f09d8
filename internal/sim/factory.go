package sim

import (
	"sync"
	"sync/atomic"

	ole "github.com/go-ole/go-ole"

	"dinputproxy/internal/dinput"
	"dinputproxy/internal/proxy"
)

// Factory creates synthetic devices. Like its COM counterpart it starts with
// one outstanding reference.
type Factory struct {
	refs int32

	mu      sync.Mutex
	inst    dinput.DeviceInstance
	created []*Device
	calls   map[string]int

	// CreateErr, when set, makes CreateDevice fail with that error.
	CreateErr error

	// NewDeviceFunc, when set, replaces the default device construction.
	NewDeviceFunc func(instance *ole.GUID) (*Device, error)
}

// NewFactory creates a factory whose devices report the given descriptor.
func NewFactory(inst dinput.DeviceInstance) *Factory {
	return &Factory{refs: 1, inst: inst, calls: make(map[string]int)}
}

// Refs returns the current reference count.
func (f *Factory) Refs() uint32 {
	return uint32(atomic.LoadInt32(&f.refs))
}

// Created returns the devices handed out so far.
func (f *Factory) Created() []*Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Device(nil), f.created...)
}

// Calls returns how many times the named operation was invoked.
func (f *Factory) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Factory) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *Factory) QueryInterface(iid *ole.GUID) (proxy.Unknown, error) {
	f.record("QueryInterface")
	if ole.IsEqualGUID(iid, dinput.IIDIUnknown) ||
		ole.IsEqualGUID(iid, dinput.IIDIDirectInput8A) ||
		ole.IsEqualGUID(iid, dinput.IIDIDirectInput8W) {
		f.AddRef()
		return f, nil
	}
	return nil, ole.NewError(dinput.ENoInterface)
}

func (f *Factory) AddRef() uint32 {
	return uint32(atomic.AddInt32(&f.refs, 1))
}

func (f *Factory) Release() uint32 {
	return uint32(atomic.AddInt32(&f.refs, -1))
}

// CreateDevice hands out a fresh synthetic device.
func (f *Factory) CreateDevice(instance *ole.GUID) (proxy.Device, error) {
	f.record("CreateDevice")
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	var (
		dev *Device
		err error
	)
	if f.NewDeviceFunc != nil {
		dev, err = f.NewDeviceFunc(instance)
		if err != nil {
			return nil, err
		}
	} else {
		dev = NewDevice(f.inst)
	}
	f.mu.Lock()
	f.created = append(f.created, dev)
	f.mu.Unlock()
	return dev, nil
}

// EnumDevices reports the single synthetic device.
func (f *Factory) EnumDevices(devType uint32, cb proxy.EnumDevicesFunc, flags uint32) error {
	f.record("EnumDevices")
	cb(f.inst)
	return nil
}

func (f *Factory) GetDeviceStatus(instance *ole.GUID) error {
	f.record("GetDeviceStatus")
	return nil
}

func (f *Factory) RunControlPanel(owner uintptr, flags uint32) error {
	f.record("RunControlPanel")
	return nil
}

func (f *Factory) Initialize(inst uintptr, version uint32) error {
	f.record("Initialize")
	return nil
}

func (f *Factory) FindDevice(class *ole.GUID, name string) (ole.GUID, error) {
	f.record("FindDevice")
	return f.inst.InstanceGUID, nil
}

func (f *Factory) EnumDevicesBySemantics(userName string, format *dinput.ActionFormat, cb proxy.EnumDevicesFunc, flags uint32) error {
	f.record("EnumDevicesBySemantics")
	cb(f.inst)
	return nil
}

func (f *Factory) ConfigureDevices(params []byte, flags uint32) error {
	f.record("ConfigureDevices")
	return nil
}

var _ proxy.Factory = (*Factory)(nil)
