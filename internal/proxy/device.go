package proxy

import (
	"log"

	ole "github.com/go-ole/go-ole"
)

// DeviceProxy wraps exactly one real device for the lifetime of both. The
// embedded Device supplies the default forward-to-inner implementation for
// every operation; only state retrieval, identity queries and release are
// overridden here.
type DeviceProxy struct {
	Device

	iid    *ole.GUID
	axes   Axes
	logger *log.Logger

	// OnDestroy is invoked once, when the real object's reference count
	// reaches zero and the wrapper goes down with it.
	OnDestroy func()
}

// NewDeviceProxy wraps a real device. iid is the interface identity the proxy
// answers for on QueryInterface; logger may be nil.
func NewDeviceProxy(inner Device, iid *ole.GUID, axes Axes, logger *log.Logger) *DeviceProxy {
	if logger != nil {
		logger.Printf("[PROXY] device wrapper created")
	}
	return &DeviceProxy{Device: inner, iid: iid, axes: axes, logger: logger}
}

// Inner returns the wrapped real device.
func (p *DeviceProxy) Inner() Device {
	return p.Device
}

// GetDeviceState forwards the state fill to the real device and, on success,
// zeroes the rotational axis fields when the buffer has the recognized
// layout. Failures propagate unchanged and leave the buffer untouched.
func (p *DeviceProxy) GetDeviceState(buf []byte) error {
	if err := p.Device.GetDeviceState(buf); err != nil {
		return err
	}
	SuppressRotation(buf, p.axes)
	return nil
}

// QueryInterface returns the proxy itself, after incrementing the shared
// count, for the identity it stands in for; any other identifier is resolved
// by the real device.
func (p *DeviceProxy) QueryInterface(iid *ole.GUID) (Unknown, error) {
	if ole.IsEqualGUID(iid, p.iid) || isUnknownIID(iid) {
		p.Device.AddRef()
		return p, nil
	}
	return p.Device.QueryInterface(iid)
}

// Release delegates to the real device. The teardown decision is based on
// the count returned by that call: when it reaches zero the real object is
// gone and the wrapper is torn down with it.
func (p *DeviceProxy) Release() uint32 {
	n := p.Device.Release()
	if n == 0 {
		if p.logger != nil {
			p.logger.Printf("[PROXY] device wrapper destroyed")
		}
		if p.OnDestroy != nil {
			p.OnDestroy()
		}
	}
	return n
}
